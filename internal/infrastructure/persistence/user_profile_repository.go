package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitaguide/backend/internal/domain/identity"
	"github.com/vitaguide/backend/internal/domain/shared"
	"github.com/vitaguide/backend/internal/infrastructure/persistence/models"
)

// GormUserProfileRepository implements identity.UserProfileReader using GORM
type GormUserProfileRepository struct {
	db *gorm.DB
}

var _ identity.UserProfileReader = (*GormUserProfileRepository)(nil)

// NewGormUserProfileRepository creates a new GormUserProfileRepository
func NewGormUserProfileRepository(db *gorm.DB) *GormUserProfileRepository {
	return &GormUserProfileRepository{db: db}
}

// FindByID finds a user profile by user id
func (r *GormUserProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.UserProfile, error) {
	var model models.UserProfileModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces a user profile
func (r *GormUserProfileRepository) Save(ctx context.Context, p *identity.UserProfile) error {
	model := models.UserProfileModelFromDomain(p)
	now := time.Now()
	model.CreatedAt = now
	model.UpdatedAt = now

	var existing models.UserProfileModel
	err := r.db.WithContext(ctx).Select("created_at").Where("id = ?", p.ID).First(&existing).Error
	switch {
	case err == nil:
		model.CreatedAt = existing.CreatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	return r.db.WithContext(ctx).Save(model).Error
}
