package db

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SpotStatus is the moderation state of a spot.
type SpotStatus string

const (
	SpotStatusDraft     SpotStatus = "DRAFT"
	SpotStatusReview    SpotStatus = "REVIEW"
	SpotStatusPublished SpotStatus = "PUBLISHED"
)

// SpotStatuses lists all valid moderation states.
var SpotStatuses = []SpotStatus{SpotStatusDraft, SpotStatusReview, SpotStatusPublished}

// IsValidSpotStatus reports whether s names a known moderation state.
func IsValidSpotStatus(s string) bool {
	for _, status := range SpotStatuses {
		if SpotStatus(s) == status {
			return true
		}
	}
	return false
}

// IconType classifies a spot for map rendering.
type IconType string

// Known icon types.
var IconTypes = []IconType{
	"ONI", "KITSUNE", "DOG", "DRAGON", "TEMPLE", "SHRINE", "ANIMAL", "GENERIC",
}

// IsValidIconType reports whether s names a known icon type.
func IsValidIconType(s string) bool {
	for _, it := range IconTypes {
		if IconType(s) == it {
			return true
		}
	}
	return false
}

// SourceType classifies a citation attached to a spot.
type SourceType string

const (
	SourceTypeURL       SourceType = "URL"
	SourceTypeBook      SourceType = "BOOK"
	SourceTypeInterview SourceType = "INTERVIEW"
)

// Source is a citation backing a spot's folklore claim.
type Source struct {
	Type     SourceType `bson:"type" json:"type"`
	Citation string     `bson:"citation" json:"citation"`
	URL      string     `bson:"url,omitempty" json:"url,omitempty"`
}

// Validate checks a source's constraints.
func (s *Source) Validate() error {
	switch s.Type {
	case SourceTypeURL, SourceTypeBook, SourceTypeInterview:
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	if len(s.Citation) < 3 {
		return fmt.Errorf("citation must be at least 3 characters")
	}
	if s.Type == SourceTypeURL && s.URL == "" {
		return fmt.Errorf("url is required for URL sources")
	}
	return nil
}

// Spot represents the schema for the "spots" collection. Location holds the
// published (blurred) coordinate only; the precise geocoded coordinate is
// never written to storage.
type Spot struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Address     string             `bson:"address" json:"address"`
	MapsQuery   string             `bson:"mapsQuery,omitempty" json:"mapsQuery,omitempty"`
	PlaceID     string             `bson:"placeId,omitempty" json:"placeId,omitempty"`
	IconType    IconType           `bson:"iconType" json:"iconType"`
	EraHint     string             `bson:"eraHint,omitempty" json:"eraHint,omitempty"`
	Sources     []Source           `bson:"sources" json:"sources"`
	Location    DBLocation         `bson:"location" json:"location"`
	BlurRadius  float64            `bson:"blurRadius" json:"blurRadius"`
	Status      SpotStatus         `bson:"status" json:"status"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Likes       int64              `bson:"likes" json:"likes"`
	Saves       int64              `bson:"saves" json:"saves"`
	Views       int64              `bson:"views" json:"views"`
	CreatedAt   time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Validate checks if the spot data meets the required constraints.
func (s *Spot) Validate() error {
	if len(s.Title) < 2 || len(s.Title) > 80 {
		return fmt.Errorf("title length must be between 2 and 80 characters")
	}
	if len(s.Description) < 10 || len(s.Description) > 3000 {
		return fmt.Errorf("description length must be between 10 and 3000 characters")
	}
	if len(s.Address) < 3 {
		return fmt.Errorf("address must be at least 3 characters")
	}
	if !IsValidIconType(string(s.IconType)) {
		return fmt.Errorf("unknown icon type %q", s.IconType)
	}
	if len(s.EraHint) > 120 {
		return fmt.Errorf("era hint must be at most 120 characters")
	}
	if len(s.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for i := range s.Sources {
		if err := s.Sources[i].Validate(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	return nil
}

// SpotFilter narrows a spot listing. The zero value matches everything the
// caller is allowed to see.
type SpotFilter struct {
	// BBox is west, south, east, north in degrees.
	BBox *[4]float64
	// SearchTerm matches title and description, case-insensitive.
	SearchTerm string
	// Statuses restricts the moderation states returned.
	Statuses []SpotStatus
	// IconTypes restricts the icon classification.
	IconTypes []IconType
	// Era matches eraHint, case-insensitive partial match.
	Era string
	// OwnerVisibility, when set, widens the result beyond published spots to
	// include unpublished spots created by this user. When nil and
	// AllStatuses is false, only published spots match.
	OwnerVisibility *primitive.ObjectID
	// AllStatuses lifts the published-only restriction entirely (reviewer+).
	AllStatuses bool
}

// SpotService provides methods to interact with the "spots" collection.
type SpotService struct {
	Collection *mongo.Collection
}

// NewSpotService creates a new SpotService.
func NewSpotService(db *Database) *SpotService {
	return &SpotService{
		Collection: db.Database.Collection("spots"),
	}
}

// InsertSpot inserts a new Spot document.
func (s *SpotService) InsertSpot(ctx context.Context, spot *Spot) (*mongo.InsertOneResult, error) {
	now := time.Now()
	if spot.CreatedAt.IsZero() {
		spot.CreatedAt = now
	}
	spot.UpdatedAt = now
	return s.Collection.InsertOne(ctx, spot)
}

// GetSpotByID retrieves a Spot by its ID.
func (s *SpotService) GetSpotByID(ctx context.Context, id primitive.ObjectID) (*Spot, error) {
	var spot Spot
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&spot)
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

// UpdateSpot applies a partial update to a Spot document and bumps updatedAt.
func (s *SpotService) UpdateSpot(ctx context.Context, id primitive.ObjectID, update bson.M) (*mongo.UpdateResult, error) {
	update["updatedAt"] = time.Now()
	return s.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
}

// DeleteSpot deletes a Spot document by its ID.
func (s *SpotService) DeleteSpot(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// IncrementCounter atomically increments one of the interaction counters
// (likes, saves, views).
func (s *SpotService) IncrementCounter(ctx context.Context, id primitive.ObjectID, field string) error {
	switch field {
	case "likes", "saves", "views":
	default:
		return fmt.Errorf("unknown counter field %q", field)
	}
	_, err := s.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: 1}})
	return err
}

// CountSpots returns the total number of spots.
func (s *SpotService) CountSpots(ctx context.Context) (int64, error) {
	return s.Collection.CountDocuments(ctx, bson.M{})
}

// CountSpotsByStatus returns the number of spots per moderation state.
func (s *SpotService) CountSpotsByStatus(ctx context.Context) (map[SpotStatus]int64, error) {
	counts := make(map[SpotStatus]int64, len(SpotStatuses))
	for _, status := range SpotStatuses {
		n, err := s.Collection.CountDocuments(ctx, bson.M{"status": status})
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, nil
}

// ListSpots returns a page of spots matching the filter, newest-updated first,
// together with the total match count for pagination.
func (s *SpotService) ListSpots(ctx context.Context, filter SpotFilter, page, pageSize int) ([]*Spot, int64, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}
	query := buildSpotQuery(filter)

	total, err := s.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetSkip(int64(page * pageSize)).
		SetLimit(int64(pageSize))
	cursor, err := s.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Error().Err(err).Msg("error closing cursor")
		}
	}()

	var spots []*Spot
	if err := cursor.All(ctx, &spots); err != nil {
		return nil, 0, err
	}
	return spots, total, nil
}

// GetTopSpots returns published spots ordered by an interaction counter, for
// the popularity analytics.
func (s *SpotService) GetTopSpots(ctx context.Context, field string, limit int) ([]*Spot, error) {
	switch field {
	case "likes", "saves", "views":
	default:
		return nil, fmt.Errorf("unknown counter field %q", field)
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.Collection.Find(ctx, bson.M{"status": SpotStatusPublished}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Error().Err(err).Msg("error closing cursor")
		}
	}()

	var spots []*Spot
	if err := cursor.All(ctx, &spots); err != nil {
		return nil, err
	}
	return spots, nil
}

// buildSpotQuery converts a SpotFilter into a MongoDB query document.
func buildSpotQuery(filter SpotFilter) bson.M {
	var and []bson.M

	if filter.BBox != nil {
		west, south, east, north := filter.BBox[0], filter.BBox[1], filter.BBox[2], filter.BBox[3]
		and = append(and, bson.M{
			"location": bson.M{
				"$geoWithin": bson.M{
					"$geometry": bson.M{
						"type": "Polygon",
						"coordinates": [][][]float64{{
							{west, south},
							{east, south},
							{east, north},
							{west, north},
							{west, south},
						}},
					},
				},
			},
		})
	}

	if filter.SearchTerm != "" {
		pattern := regexp.QuoteMeta(filter.SearchTerm)
		and = append(and, bson.M{"$or": []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}})
	}

	if len(filter.IconTypes) > 0 {
		and = append(and, bson.M{"iconType": bson.M{"$in": filter.IconTypes}})
	}

	if filter.Era != "" {
		and = append(and, bson.M{"eraHint": bson.M{
			"$regex": regexp.QuoteMeta(filter.Era), "$options": "i",
		}})
	}

	if !filter.AllStatuses {
		if filter.OwnerVisibility != nil {
			and = append(and, bson.M{"$or": []bson.M{
				{"status": SpotStatusPublished},
				{"createdBy": *filter.OwnerVisibility},
			}})
		} else {
			and = append(and, bson.M{"status": SpotStatusPublished})
		}
	}

	if len(filter.Statuses) > 0 {
		and = append(and, bson.M{"status": bson.M{"$in": filter.Statuses}})
	}

	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}
