package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appcatalog "github.com/vitaguide/backend/internal/application/catalog"
)

// maxRecommendationLimit caps the limit query parameter
const maxRecommendationLimit = 100

// Recommender ranks catalog supplements for a user
type Recommender interface {
	GetRecommendedProducts(ctx context.Context, userID uuid.UUID) (*appcatalog.RecommendationResult, error)
}

var _ Recommender = (*appcatalog.RecommendationService)(nil)

// RecommendationHandler serves goal-matched supplement recommendations
type RecommendationHandler struct {
	BaseHandler
	recommender Recommender
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(recommender Recommender) *RecommendationHandler {
	return &RecommendationHandler{recommender: recommender}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *RecommendationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/recommendations", h.GetRecommendations)
}

// GetRecommendations returns the caller's ranked matches.
// limit trims the list but total_matches still counts every match.
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxRecommendationLimit {
			h.BadRequest(c, "limit must be an integer between 1 and 100")
			return
		}
	}

	result, err := h.recommender.GetRecommendedProducts(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result.Top(limit))
}
