package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitaguide/backend/internal/domain/shared"
)

// Form is the dosage form of a supplement
type Form string

const (
	FormTablet  Form = "tablet"
	FormCapsule Form = "capsule"
	FormPowder  Form = "powder"
	FormLiquid  Form = "liquid"
	FormGummy   Form = "gummy"
	FormCream   Form = "cream"
	FormOther   Form = "other"
)

// AllForms returns every supported form
func AllForms() []Form {
	return []Form{FormTablet, FormCapsule, FormPowder, FormLiquid, FormGummy, FormCream, FormOther}
}

// IsValid reports whether the form is one of the supported values
func (f Form) IsValid() bool {
	for _, v := range AllForms() {
		if f == v {
			return true
		}
	}
	return false
}

// String returns the string representation
func (f Form) String() string {
	return string(f)
}

// Defaults applied when vendor data is missing
const (
	UnknownValue    = "Unknown"
	DefaultCurrency = "TRY"
)

// Ingredient is one active ingredient of a supplement
type Ingredient struct {
	Name   string `json:"name" bson:"name" validate:"required"`
	Amount string `json:"amount" bson:"amount"`
	Unit   string `json:"unit" bson:"unit"`
}

// Supplement is a catalog item imported from a vendor.
// (SourceID, SourceType) is its natural key.
type Supplement struct {
	shared.BaseEntity
	SourceID     string           `validate:"required"`
	SourceType   string           `validate:"required"`
	Name         string           `validate:"required,max=500"`
	Description  string           // vendor indication text
	Brand        string           `validate:"required"`
	Manufacturer string           `validate:"required"`
	Form         Form             `validate:"required,oneof=tablet capsule powder liquid gummy cream other"`
	Ingredients  []Ingredient     `validate:"dive"`
	Category     []string
	Price        *decimal.Decimal
	Currency     string `validate:"required,len=3"`
	ImageURL     *string
	IsActive     bool
	LastSynced   time.Time
}

// HasCategory reports whether the supplement carries the given tag
func (s *Supplement) HasCategory(tag string) bool {
	for _, c := range s.Category {
		if strings.EqualFold(c, tag) {
			return true
		}
	}
	return false
}

// IngredientNames returns the names of all ingredients
func (s *Supplement) IngredientNames() []string {
	names := make([]string, 0, len(s.Ingredients))
	for _, ing := range s.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
