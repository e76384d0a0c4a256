package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FlagStatus is the triage state of a report.
type FlagStatus string

const (
	FlagStatusOpen     FlagStatus = "OPEN"
	FlagStatusResolved FlagStatus = "RESOLVED"
	FlagStatusRejected FlagStatus = "REJECTED"
)

// IsValidFlagStatus reports whether s names a known flag status.
func IsValidFlagStatus(s string) bool {
	switch FlagStatus(s) {
	case FlagStatusOpen, FlagStatusResolved, FlagStatusRejected:
		return true
	}
	return false
}

// Flag reasons a reporter may choose from.
var FlagReasons = []string{"INACCURATE", "INAPPROPRIATE", "DUPLICATE", "COPYRIGHT", "OTHER"}

// IsValidFlagReason reports whether s names a known flag reason.
func IsValidFlagReason(s string) bool {
	for _, r := range FlagReasons {
		if s == r {
			return true
		}
	}
	return false
}

// Flag represents the schema for the "flags" collection. CreatedBy is the
// literal string "anonymous" for unauthenticated reports.
type Flag struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SpotID    primitive.ObjectID `bson:"spotId" json:"spotId"`
	Reason    string             `bson:"reason" json:"reason"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	Status    FlagStatus         `bson:"status" json:"status"`
	CreatedBy string             `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Validate checks the flag's constraints.
func (f *Flag) Validate() error {
	if !IsValidFlagReason(f.Reason) {
		return fmt.Errorf("unknown flag reason %q", f.Reason)
	}
	if len(f.Note) > 1000 {
		return fmt.Errorf("note must be at most 1000 characters")
	}
	return nil
}

// FlagService provides methods to interact with the "flags" collection.
type FlagService struct {
	Collection *mongo.Collection
}

// NewFlagService creates a new FlagService.
func NewFlagService(db *Database) *FlagService {
	return &FlagService{
		Collection: db.Database.Collection("flags"),
	}
}

// InsertFlag inserts a new Flag document.
func (s *FlagService) InsertFlag(ctx context.Context, flag *Flag) (*mongo.InsertOneResult, error) {
	now := time.Now()
	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = now
	}
	flag.UpdatedAt = now
	if flag.Status == "" {
		flag.Status = FlagStatusOpen
	}
	return s.Collection.InsertOne(ctx, flag)
}

// GetFlagByID retrieves a Flag by its ID.
func (s *FlagService) GetFlagByID(ctx context.Context, id primitive.ObjectID) (*Flag, error) {
	var flag Flag
	if err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&flag); err != nil {
		return nil, err
	}
	return &flag, nil
}

// ListFlags returns flags newest first, optionally restricted to a status.
func (s *FlagService) ListFlags(ctx context.Context, status FlagStatus) ([]*Flag, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Error().Err(err).Msg("error closing cursor")
		}
	}()

	var flags []*Flag
	if err := cursor.All(ctx, &flags); err != nil {
		return nil, err
	}
	return flags, nil
}

// UpdateFlagStatus moves a flag through the triage workflow.
func (s *FlagService) UpdateFlagStatus(ctx context.Context, id primitive.ObjectID, status FlagStatus, note string) (*mongo.UpdateResult, error) {
	update := bson.M{"status": status, "updatedAt": time.Now()}
	if note != "" {
		update["note"] = note
	}
	return s.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
}

// CountOpenFlags returns the number of flags awaiting triage.
func (s *FlagService) CountOpenFlags(ctx context.Context) (int64, error) {
	return s.Collection.CountDocuments(ctx, bson.M{"status": FlagStatusOpen})
}

// DeleteFlagsForSpot removes all flags attached to a spot, used when the spot
// itself is deleted.
func (s *FlagService) DeleteFlagsForSpot(ctx context.Context, spotID primitive.ObjectID) error {
	_, err := s.Collection.DeleteMany(ctx, bson.M{"spotId": spotID})
	return err
}
