package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// UserProfile is the read-only slice of a user needed for recommendations
type UserProfile struct {
	ID              uuid.UUID
	IsFormFilled    bool
	SupplementGoals []string
}

// Goals returns the non-blank goals in their stored order
func (p *UserProfile) Goals() []string {
	goals := make([]string, 0, len(p.SupplementGoals))
	for _, g := range p.SupplementGoals {
		if strings.TrimSpace(g) != "" {
			goals = append(goals, g)
		}
	}
	return goals
}

// UserProfileReader loads user profiles.
// FindByID returns shared.ErrNotFound when the user does not exist.
type UserProfileReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UserProfile, error)
}
