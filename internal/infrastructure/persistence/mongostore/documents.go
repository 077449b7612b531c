package mongostore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/identity"
	"github.com/vitaguide/backend/internal/domain/shared"
)

// Collection names
const (
	SupplementsCollection  = "supplements"
	UserProfilesCollection = "user_profiles"
)

// supplementDocument is the stored shape of a catalog.Supplement.
// _id holds the uuid in its canonical string form.
type supplementDocument struct {
	ID           string                `bson:"_id"`
	SourceID     string                `bson:"sourceId"`
	SourceType   string                `bson:"sourceType"`
	Name         string                `bson:"name"`
	Description  string                `bson:"description"`
	Brand        string                `bson:"brand"`
	Manufacturer string                `bson:"manufacturer"`
	Form         string                `bson:"form"`
	Ingredients  []catalog.Ingredient  `bson:"ingredients"`
	Category     []string              `bson:"category"`
	Price        *primitive.Decimal128 `bson:"price"`
	Currency     string                `bson:"currency"`
	ImageURL     *string               `bson:"imageUrl"`
	IsActive     bool                  `bson:"isActive"`
	LastSynced   time.Time             `bson:"lastSynced"`
	CreatedAt    time.Time             `bson:"createdAt"`
	UpdatedAt    time.Time             `bson:"updatedAt"`
}

func supplementDocumentFromDomain(s *catalog.Supplement) (*supplementDocument, error) {
	doc := &supplementDocument{
		ID:           s.ID.String(),
		SourceID:     s.SourceID,
		SourceType:   s.SourceType,
		Name:         s.Name,
		Description:  s.Description,
		Brand:        s.Brand,
		Manufacturer: s.Manufacturer,
		Form:         s.Form.String(),
		Ingredients:  s.Ingredients,
		Category:     s.Category,
		Currency:     s.Currency,
		ImageURL:     s.ImageURL,
		IsActive:     s.IsActive,
		LastSynced:   s.LastSynced,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if doc.Ingredients == nil {
		doc.Ingredients = []catalog.Ingredient{}
	}
	if doc.Category == nil {
		doc.Category = []string{}
	}
	if s.Price != nil {
		price, err := primitive.ParseDecimal128(s.Price.String())
		if err != nil {
			return nil, err
		}
		doc.Price = &price
	}
	return doc, nil
}

func (d *supplementDocument) toDomain() (*catalog.Supplement, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}

	s := &catalog.Supplement{
		BaseEntity: shared.BaseEntity{
			ID:        id,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		SourceID:     d.SourceID,
		SourceType:   d.SourceType,
		Name:         d.Name,
		Description:  d.Description,
		Brand:        d.Brand,
		Manufacturer: d.Manufacturer,
		Form:         catalog.Form(d.Form),
		Ingredients:  d.Ingredients,
		Category:     d.Category,
		Currency:     d.Currency,
		ImageURL:     d.ImageURL,
		IsActive:     d.IsActive,
		LastSynced:   d.LastSynced,
	}
	if s.Ingredients == nil {
		s.Ingredients = []catalog.Ingredient{}
	}
	if s.Category == nil {
		s.Category = []string{}
	}
	if d.Price != nil {
		price, err := decimal.NewFromString(d.Price.String())
		if err != nil {
			return nil, err
		}
		s.Price = &price
	}
	return s, nil
}

type userProfileDocument struct {
	ID              string    `bson:"_id"`
	IsFormFilled    bool      `bson:"isFormFilled"`
	SupplementGoals []string  `bson:"supplementGoals"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

func (d *userProfileDocument) toDomain() (*identity.UserProfile, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	goals := d.SupplementGoals
	if goals == nil {
		goals = []string{}
	}
	return &identity.UserProfile{
		ID:              id,
		IsFormFilled:    d.IsFormFilled,
		SupplementGoals: goals,
	}, nil
}
