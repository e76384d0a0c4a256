package db

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/folkloremap/folkloremap-backend/auth"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User represents the schema for the "users" collection.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Password  []byte             `bson:"password" json:"-"` // Don't include password in JSON
	Role      auth.Role          `bson:"role" json:"role"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	LastSeen  time.Time          `bson:"lastSeen,omitempty" json:"lastSeen,omitempty"`
}

// Validate checks if the user data meets the required constraints.
func (u *User) Validate() error {
	if len(u.Name) < 2 || len(u.Name) > 30 {
		return fmt.Errorf("name length must be between 2 and 30 characters")
	}
	if !emailRegex.MatchString(u.Email) {
		return fmt.Errorf("invalid email address")
	}
	if u.Role != "" && !auth.IsValidRole(string(u.Role)) {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	return nil
}

// UserService provides methods to interact with the "users" collection.
type UserService struct {
	Collection *mongo.Collection
}

// NewUserService creates a new UserService.
func NewUserService(db *Database) *UserService {
	return &UserService{
		Collection: db.Database.Collection("users"),
	}
}

// InsertUser inserts a new User document. New users default to the editor
// role: registration is what lets someone post drafts, while moderation roles
// are granted explicitly by an admin.
func (s *UserService) InsertUser(ctx context.Context, user *User) (*mongo.InsertOneResult, error) {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastSeen.IsZero() {
		user.LastSeen = now
	}
	if user.Role == "" {
		user.Role = auth.RoleEditor
	}
	return s.Collection.InsertOne(ctx, user)
}

// GetUserByEmail retrieves a User by their email address.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := s.Collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a User by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var user User
	if err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates a User document by their ID.
func (s *UserService) UpdateUser(ctx context.Context, id primitive.ObjectID, update bson.M) (*mongo.UpdateResult, error) {
	return s.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
}

// SetUserRole changes a user's role. The role must be a known one; this is an
// admin-only operation enforced at the API layer.
func (s *UserService) SetUserRole(ctx context.Context, id primitive.ObjectID, role auth.Role) (*mongo.UpdateResult, error) {
	if !auth.IsValidRole(string(role)) {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return s.UpdateUser(ctx, id, bson.M{"role": role})
}

// CountUsers returns the total number of users.
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	return s.Collection.CountDocuments(ctx, bson.M{})
}
