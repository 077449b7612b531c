package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vitaguide/backend/internal/domain/identity"
	"github.com/vitaguide/backend/internal/domain/shared"
)

// UserProfileRepository implements identity.UserProfileReader on MongoDB
type UserProfileRepository struct {
	collection *mongo.Collection
}

var _ identity.UserProfileReader = (*UserProfileRepository)(nil)

// NewUserProfileRepository creates a repository over the user_profiles collection
func NewUserProfileRepository(db *mongo.Database) *UserProfileRepository {
	return &UserProfileRepository{collection: db.Collection(UserProfilesCollection)}
}

// FindByID finds a user profile by user id
func (r *UserProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.UserProfile, error) {
	var doc userProfileDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

// Save creates or replaces a user profile
func (r *UserProfileRepository) Save(ctx context.Context, p *identity.UserProfile) error {
	goals := p.SupplementGoals
	if goals == nil {
		goals = []string{}
	}
	doc := userProfileDocument{
		ID:              p.ID.String(),
		IsFormFilled:    p.IsFormFilled,
		SupplementGoals: goals,
		UpdatedAt:       time.Now().UTC(),
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}
