package db

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditEntry records a mutation to a spot for the moderation history view.
// Changes holds the new values, Previous the overwritten ones, both keyed by
// field name.
type AuditEntry struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	SpotID    primitive.ObjectID     `bson:"spotId" json:"spotId"`
	Action    string                 `bson:"action" json:"action"`
	By        primitive.ObjectID     `bson:"by" json:"by"`
	Changes   map[string]interface{} `bson:"changes,omitempty" json:"changes,omitempty"`
	Previous  map[string]interface{} `bson:"previous,omitempty" json:"previous,omitempty"`
	CreatedAt time.Time              `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Audit actions.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
)

// AuditService provides methods to interact with the "audits" collection.
type AuditService struct {
	Collection *mongo.Collection
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *Database) *AuditService {
	return &AuditService{
		Collection: db.Database.Collection("audits"),
	}
}

// InsertEntry records an audit entry.
func (s *AuditService) InsertEntry(ctx context.Context, entry *AuditEntry) (*mongo.InsertOneResult, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return s.Collection.InsertOne(ctx, entry)
}

// ListEntriesForSpot returns the audit trail of a spot, newest first.
func (s *AuditService) ListEntriesForSpot(ctx context.Context, spotID primitive.ObjectID) ([]*AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.Collection.Find(ctx, bson.M{"spotId": spotID}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Error().Err(err).Msg("error closing cursor")
		}
	}()

	var entries []*AuditEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
