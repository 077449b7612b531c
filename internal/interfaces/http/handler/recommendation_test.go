package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appcatalog "github.com/vitaguide/backend/internal/application/catalog"
	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/interfaces/http/dto"
)

type mockRecommender struct {
	mock.Mock
}

func (m *mockRecommender) GetRecommendedProducts(ctx context.Context, userID uuid.UUID) (*appcatalog.RecommendationResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcatalog.RecommendationResult), args.Error(1)
}

func threeMatches() *appcatalog.RecommendationResult {
	match := func(name string, score int) appcatalog.ProductMatchResult {
		return appcatalog.ProductMatchResult{
			Product:     appcatalog.SupplementResponse{ID: uuid.New(), Name: name, Form: "tablet"},
			Score:       score,
			Reason:      "Ürün açıklaması hedefinizle örtüşüyor",
			MatchedGoal: "enerji",
		}
	}
	return &appcatalog.RecommendationResult{
		Recommendations: []appcatalog.ProductMatchResult{match("B12", 110), match("Demir", 60), match("Magnezyum", 25)},
		TotalMatches:    3,
		UserGoals:       []string{"enerji"},
	}
}

func newRecommendationRouter(rec Recommender, userID string) *gin.Engine {
	router := gin.New()
	api := router.Group("/api/v1")
	if userID != "" {
		api.Use(withUser(userID))
	}
	NewRecommendationHandler(rec).RegisterRoutes(api)
	return router
}

func TestRecommendationHandler_GetRecommendations(t *testing.T) {
	userID := uuid.New()

	t.Run("returns every match without a limit", func(t *testing.T) {
		svc := new(mockRecommender)
		svc.On("GetRecommendedProducts", mock.Anything, userID).Return(threeMatches(), nil)

		rec, resp := doRequest(t, newRecommendationRouter(svc, userID.String()), http.MethodGet, "/api/v1/recommendations", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		var result appcatalog.RecommendationResult
		decodeData(t, resp, &result)
		assert.Len(t, result.Recommendations, 3)
		assert.Equal(t, 3, result.TotalMatches)
		assert.Equal(t, []string{"enerji"}, result.UserGoals)
		svc.AssertExpectations(t)
	})

	t.Run("limit trims the list but keeps the total", func(t *testing.T) {
		svc := new(mockRecommender)
		svc.On("GetRecommendedProducts", mock.Anything, userID).Return(threeMatches(), nil)

		rec, resp := doRequest(t, newRecommendationRouter(svc, userID.String()), http.MethodGet, "/api/v1/recommendations?limit=2", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var result appcatalog.RecommendationResult
		decodeData(t, resp, &result)
		require.Len(t, result.Recommendations, 2)
		assert.Equal(t, "B12", result.Recommendations[0].Product.Name)
		assert.Equal(t, 110, result.Recommendations[0].Score)
		assert.Equal(t, 3, result.TotalMatches)
	})

	t.Run("invalid limit", func(t *testing.T) {
		for _, limit := range []string{"0", "-1", "abc", "101"} {
			svc := new(mockRecommender)
			rec, resp := doRequest(t, newRecommendationRouter(svc, userID.String()), http.MethodGet, "/api/v1/recommendations?limit="+limit, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
			assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
			svc.AssertNotCalled(t, "GetRecommendedProducts", mock.Anything, mock.Anything)
		}
	})

	t.Run("user not found", func(t *testing.T) {
		svc := new(mockRecommender)
		svc.On("GetRecommendedProducts", mock.Anything, userID).Return(nil, catalog.ErrUserNotFound)

		rec, resp := doRequest(t, newRecommendationRouter(svc, userID.String()), http.MethodGet, "/api/v1/recommendations", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, dto.ErrCodeUserNotFound, resp.Error.Code)
	})

	t.Run("form not filled", func(t *testing.T) {
		svc := new(mockRecommender)
		svc.On("GetRecommendedProducts", mock.Anything, userID).Return(nil, catalog.ErrFormNotFilled)

		rec, resp := doRequest(t, newRecommendationRouter(svc, userID.String()), http.MethodGet, "/api/v1/recommendations", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeFormNotFilled, resp.Error.Code)
	})

	t.Run("repository failure", func(t *testing.T) {
		svc := new(mockRecommender)
		svc.On("GetRecommendedProducts", mock.Anything, userID).Return(nil, assert.AnError)

		rec, resp := doRequest(t, newRecommendationRouter(svc, userID.String()), http.MethodGet, "/api/v1/recommendations", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(mockRecommender)
		rec, resp := doRequest(t, newRecommendationRouter(svc, ""), http.MethodGet, "/api/v1/recommendations", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
	})
}
