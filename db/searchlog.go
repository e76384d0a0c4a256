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

// SearchLog records a search performed against the spot listing, for the
// admin analytics dashboard.
type SearchLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Term      string             `bson:"term" json:"term"`
	Results   int64              `bson:"results" json:"results"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// SearchLogService provides methods to interact with the "searchlogs" collection.
type SearchLogService struct {
	Collection *mongo.Collection
}

// NewSearchLogService creates a new SearchLogService.
func NewSearchLogService(db *Database) *SearchLogService {
	return &SearchLogService{
		Collection: db.Database.Collection("searchlogs"),
	}
}

// InsertLog records a search. Terms are sanitized before storage.
func (s *SearchLogService) InsertLog(ctx context.Context, term string, results int64) (*mongo.InsertOneResult, error) {
	return s.Collection.InsertOne(ctx, &SearchLog{
		Term:      SanitizeString(term),
		Results:   results,
		CreatedAt: time.Now(),
	})
}

// ListRecent returns the most recent search logs.
func (s *SearchLogService) ListRecent(ctx context.Context, limit int) ([]*SearchLog, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Error().Err(err).Msg("error closing cursor")
		}
	}()

	var logs []*SearchLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
