package db

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitializeDatabase ensures collections and indexes are ready for use.
func InitializeDatabase(db *Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return createIndexes(ctx, db)
}

// createIndexes creates all required indexes for collections.
func createIndexes(ctx context.Context, db *Database) error {
	// User collection indexes
	userColl := db.Database.Collection("users")
	if _, err := userColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}); err != nil {
		log.Error().Err(err).Msg("error creating user indexes")
		return err
	}

	// Spot collection indexes: geospatial queries plus the common list sorts.
	spotColl := db.Database.Collection("spots")
	if _, err := spotColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
	}); err != nil {
		log.Error().Err(err).Msg("error creating spot indexes")
		return err
	}

	// Flag collection indexes
	flagColl := db.Database.Collection("flags")
	if _, err := flagColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "spotId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		log.Error().Err(err).Msg("error creating flag indexes")
		return err
	}

	// Audit collection indexes
	auditColl := db.Database.Collection("audits")
	if _, err := auditColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "spotId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		log.Error().Err(err).Msg("error creating audit indexes")
		return err
	}

	// Search log indexes
	searchColl := db.Database.Collection("searchlogs")
	if _, err := searchColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}); err != nil {
		log.Error().Err(err).Msg("error creating search log indexes")
		return err
	}

	return nil
}
