package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vitaguide/backend/internal/domain/catalog"
)

// SyncStats counts the outcome of every listed item of a sync run.
// Total always equals Synced + Failed + Skipped.
type SyncStats struct {
	Total   int `json:"total"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// SyncResult is the summary of one catalog sync run
type SyncResult struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Interrupted bool           `json:"interrupted,omitempty"`
	Stats       SyncStats      `json:"stats"`
	Errors      []string       `json:"errors"`
	BrandCounts map[string]int `json:"brand_counts,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// Duration returns how long the run took
func (r *SyncResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SupplementResponse represents a supplement in API responses
type SupplementResponse struct {
	ID           uuid.UUID            `json:"id"`
	SourceID     string               `json:"source_id"`
	SourceType   string               `json:"source_type"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Brand        string               `json:"brand"`
	Manufacturer string               `json:"manufacturer"`
	Form         string               `json:"form"`
	Ingredients  []catalog.Ingredient `json:"ingredients"`
	Category     []string             `json:"category"`
	Price        *decimal.Decimal     `json:"price,omitempty"`
	Currency     string               `json:"currency"`
	ImageURL     *string              `json:"image_url,omitempty"`
	IsActive     bool                 `json:"is_active"`
	LastSynced   time.Time            `json:"last_synced"`
}

// ToSupplementResponse converts a domain Supplement to a response DTO
func ToSupplementResponse(s *catalog.Supplement) SupplementResponse {
	ingredients := s.Ingredients
	if ingredients == nil {
		ingredients = []catalog.Ingredient{}
	}
	category := s.Category
	if category == nil {
		category = []string{}
	}
	return SupplementResponse{
		ID:           s.ID,
		SourceID:     s.SourceID,
		SourceType:   s.SourceType,
		Name:         s.Name,
		Description:  s.Description,
		Brand:        s.Brand,
		Manufacturer: s.Manufacturer,
		Form:         s.Form.String(),
		Ingredients:  ingredients,
		Category:     category,
		Price:        s.Price,
		Currency:     s.Currency,
		ImageURL:     s.ImageURL,
		IsActive:     s.IsActive,
		LastSynced:   s.LastSynced,
	}
}

// ProductMatchResult is one ranked recommendation
type ProductMatchResult struct {
	Product     SupplementResponse `json:"product"`
	Score       int                `json:"score"`
	Reason      string             `json:"reason"`
	MatchedGoal string             `json:"matched_goal"`
}

// RecommendationResult is the ranked recommendation list for one user
type RecommendationResult struct {
	Recommendations []ProductMatchResult `json:"recommendations"`
	TotalMatches    int                  `json:"total_matches"`
	UserGoals       []string             `json:"user_goals"`
}

// Top returns a copy limited to the first n recommendations.
// TotalMatches keeps counting every match.
func (r *RecommendationResult) Top(n int) *RecommendationResult {
	if n <= 0 || n >= len(r.Recommendations) {
		return r
	}
	return &RecommendationResult{
		Recommendations: r.Recommendations[:n],
		TotalMatches:    r.TotalMatches,
		UserGoals:       r.UserGoals,
	}
}
