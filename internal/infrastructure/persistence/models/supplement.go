package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitaguide/backend/internal/domain/catalog"
)

// SupplementModel is the persistence model for the Supplement domain entity.
// (source_id, source_type) is unique so sync can upsert on it.
type SupplementModel struct {
	BaseModel
	SourceID     string               `gorm:"type:varchar(64);not null;uniqueIndex:idx_supplement_source,priority:1"`
	SourceType   string               `gorm:"type:varchar(32);not null;uniqueIndex:idx_supplement_source,priority:2"`
	Name         string               `gorm:"type:varchar(500);not null;index"`
	Description  string               `gorm:"type:text"`
	Brand        string               `gorm:"type:varchar(255);not null"`
	Manufacturer string               `gorm:"type:varchar(255);not null"`
	Form         string               `gorm:"type:varchar(20);not null"`
	Ingredients  []catalog.Ingredient `gorm:"type:jsonb;serializer:json"`
	Category     []string             `gorm:"type:jsonb;serializer:json"`
	Price        *decimal.Decimal     `gorm:"type:decimal(18,4)"`
	Currency     string               `gorm:"type:varchar(3);not null"`
	ImageURL     *string              `gorm:"type:text"`
	IsActive     bool                 `gorm:"not null;index"`
	LastSynced   time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplementModel) TableName() string {
	return "supplements"
}

// supplementUpsertColumns are overwritten when a row with the same source key exists.
// id, created_at and is_active keep their original values, so a hidden item stays hidden.
var supplementUpsertColumns = []string{
	"name", "description", "brand", "manufacturer", "form", "ingredients", "category",
	"price", "currency", "image_url", "last_synced", "updated_at",
}

// SupplementUpsertColumns returns the columns refreshed on conflict
func SupplementUpsertColumns() []string {
	return append([]string(nil), supplementUpsertColumns...)
}

// ToDomain converts the persistence model to a domain Supplement.
func (m *SupplementModel) ToDomain() *catalog.Supplement {
	ingredients := m.Ingredients
	if ingredients == nil {
		ingredients = []catalog.Ingredient{}
	}
	category := m.Category
	if category == nil {
		category = []string{}
	}
	return &catalog.Supplement{
		BaseEntity:   m.BaseModel.ToDomain(),
		SourceID:     m.SourceID,
		SourceType:   m.SourceType,
		Name:         m.Name,
		Description:  m.Description,
		Brand:        m.Brand,
		Manufacturer: m.Manufacturer,
		Form:         catalog.Form(m.Form),
		Ingredients:  ingredients,
		Category:     category,
		Price:        m.Price,
		Currency:     m.Currency,
		ImageURL:     m.ImageURL,
		IsActive:     m.IsActive,
		LastSynced:   m.LastSynced,
	}
}

// SupplementModelFromDomain creates a persistence model from a domain Supplement.
func SupplementModelFromDomain(s *catalog.Supplement) *SupplementModel {
	m := &SupplementModel{
		SourceID:     s.SourceID,
		SourceType:   s.SourceType,
		Name:         s.Name,
		Description:  s.Description,
		Brand:        s.Brand,
		Manufacturer: s.Manufacturer,
		Form:         s.Form.String(),
		Ingredients:  s.Ingredients,
		Category:     s.Category,
		Price:        s.Price,
		Currency:     s.Currency,
		ImageURL:     s.ImageURL,
		IsActive:     s.IsActive,
		LastSynced:   s.LastSynced,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
