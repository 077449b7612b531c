package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/shared"
)

// SupplementRepository implements catalog.SupplementRepository on a MongoDB collection
type SupplementRepository struct {
	collection *mongo.Collection
}

var _ catalog.SupplementRepository = (*SupplementRepository)(nil)

// NewSupplementRepository creates a repository over the supplements collection
func NewSupplementRepository(db *mongo.Database) *SupplementRepository {
	return &SupplementRepository{collection: db.Collection(SupplementsCollection)}
}

// EnsureIndexes creates the unique source key index and the name index
func (r *SupplementRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sourceId", Value: 1}, {Key: "sourceType", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_supplement_source"),
		},
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_supplement_active_name"),
		},
	})
	return err
}

// Upsert creates or refreshes the supplement with the same source key.
// _id, isActive and createdAt are only written on insert.
func (r *SupplementRepository) Upsert(ctx context.Context, s *catalog.Supplement) (*catalog.Supplement, error) {
	now := time.Now().UTC()
	id := s.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	doc, err := supplementDocumentFromDomain(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode supplement: %w", err)
	}

	update := upsertUpdate(doc, id, now)
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored supplementDocument
	err = r.collection.FindOneAndUpdate(ctx, sourceFilter(s.SourceID, s.SourceType), update, opts).Decode(&stored)
	if err != nil {
		return nil, err
	}
	return stored.toDomain()
}

func sourceFilter(sourceID, sourceType string) bson.M {
	return bson.M{"sourceId": sourceID, "sourceType": sourceType}
}

func upsertUpdate(doc *supplementDocument, id uuid.UUID, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"name":         doc.Name,
			"description":  doc.Description,
			"brand":        doc.Brand,
			"manufacturer": doc.Manufacturer,
			"form":         doc.Form,
			"ingredients":  doc.Ingredients,
			"category":     doc.Category,
			"price":        doc.Price,
			"currency":     doc.Currency,
			"imageUrl":     doc.ImageURL,
			"lastSynced":   doc.LastSynced,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"_id":       id.String(),
			"isActive":  doc.IsActive,
			"createdAt": now,
		},
	}
}

// FindByID finds a supplement by id
func (r *SupplementRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Supplement, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// FindBySource finds a supplement by its vendor key
func (r *SupplementRepository) FindBySource(ctx context.Context, sourceID, sourceType string) (*catalog.Supplement, error) {
	return r.findOne(ctx, sourceFilter(sourceID, sourceType))
}

func (r *SupplementRepository) findOne(ctx context.Context, filter bson.M) (*catalog.Supplement, error) {
	var doc supplementDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

// FindActive returns every active supplement ordered by name
func (r *SupplementRepository) FindActive(ctx context.Context) ([]catalog.Supplement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []supplementDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]catalog.Supplement, 0, len(docs))
	for i := range docs {
		s, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, nil
}

// Count returns the number of stored supplements
func (r *SupplementRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
