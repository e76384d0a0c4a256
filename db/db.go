package db

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database struct encapsulates the MongoDB client and the per-collection
// services.
type Database struct {
	Client   *mongo.Client
	Database *mongo.Database

	SpotService      *SpotService
	FlagService      *FlagService
	UserService      *UserService
	AuditService     *AuditService
	SearchLogService *SearchLogService
}

// New initializes a new MongoDB connection and the collection services.
func New(uri, name string) (*Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	database := &Database{
		Client:   client,
		Database: client.Database(name),
	}
	database.SpotService = NewSpotService(database)
	database.FlagService = NewFlagService(database)
	database.UserService = NewUserService(database)
	database.AuditService = NewAuditService(database)
	database.SearchLogService = NewSearchLogService(database)
	return database, nil
}

// Close disconnects the MongoDB client.
func (db *Database) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}

// CreateIndexes initializes all collections and indexes.
func (db *Database) CreateIndexes() error {
	return InitializeDatabase(db)
}

// SanitizeString removes all non-alphanumeric characters from a string, except
// for spaces, commas, dots, minus signs, and underscores.
func SanitizeString(s string) string {
	reg := regexp.MustCompile(`[^\p{L}\p{N} ,._-]+`)
	return reg.ReplaceAllString(s, "")
}
