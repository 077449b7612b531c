package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/identity"
	"github.com/vitaguide/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RecommendationService ranks active supplements against a user's goals
type RecommendationService struct {
	users       identity.UserProfileReader
	supplements catalog.SupplementReader
	logger      *zap.Logger
}

// NewRecommendationService creates a new RecommendationService
func NewRecommendationService(users identity.UserProfileReader, supplements catalog.SupplementReader, logger *zap.Logger) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{
		users:       users,
		supplements: supplements,
		logger:      logger,
	}
}

// GetRecommendedProducts returns active supplements matching the user's goals,
// best first. Each supplement keeps its highest score across goals.
func (s *RecommendationService) GetRecommendedProducts(ctx context.Context, userID uuid.UUID) (*RecommendationResult, error) {
	profile, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, catalog.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user profile: %w", err)
	}
	if profile == nil {
		return nil, catalog.ErrUserNotFound
	}
	if !profile.IsFormFilled {
		return nil, catalog.ErrFormNotFilled
	}

	goals := profile.Goals()
	if len(goals) == 0 {
		return &RecommendationResult{
			Recommendations: []ProductMatchResult{},
			TotalMatches:    0,
			UserGoals:       goals,
		}, nil
	}

	items, err := s.supplements.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active supplements: %w", err)
	}

	matches := make([]ProductMatchResult, 0)
	for i := range items {
		item := &items[i]
		if !item.IsActive {
			continue
		}
		text := newSupplementText(item)

		best := MatchScore{}
		bestGoal := ""
		for _, goal := range goals {
			m := scoreText(text, goal)
			if m.Score > best.Score {
				best = m
				bestGoal = goal
			}
		}
		if best.Score <= 0 {
			continue
		}

		matches = append(matches, ProductMatchResult{
			Product:     ToSupplementResponse(item),
			Score:       best.Score,
			Reason:      best.Reason,
			MatchedGoal: bestGoal,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Product.Name < matches[j].Product.Name
	})

	s.logger.Debug("Recommendations computed",
		zap.String("user_id", userID.String()),
		zap.Int("goals", len(goals)),
		zap.Int("candidates", len(items)),
		zap.Int("matches", len(matches)),
	)

	return &RecommendationResult{
		Recommendations: matches,
		TotalMatches:    len(matches),
		UserGoals:       goals,
	}, nil
}
