package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/shared"
	"github.com/vitaguide/backend/internal/infrastructure/persistence/models"
)

// GormSupplementRepository implements catalog.SupplementRepository using GORM
type GormSupplementRepository struct {
	db *gorm.DB
}

var _ catalog.SupplementRepository = (*GormSupplementRepository)(nil)

// NewGormSupplementRepository creates a new GormSupplementRepository
func NewGormSupplementRepository(db *gorm.DB) *GormSupplementRepository {
	return &GormSupplementRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormSupplementRepository) WithTx(tx *gorm.DB) *GormSupplementRepository {
	return &GormSupplementRepository{db: tx}
}

// Upsert inserts the supplement or refreshes the row with the same
// (source_id, source_type). The stored row is reloaded so callers see the
// surviving id and created_at.
func (r *GormSupplementRepository) Upsert(ctx context.Context, s *catalog.Supplement) (*catalog.Supplement, error) {
	model := models.SupplementModelFromDomain(s)
	now := time.Now()
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_id"}, {Name: "source_type"}},
			DoUpdates: clause.AssignmentColumns(models.SupplementUpsertColumns()),
		}).
		Create(model).Error
	if err != nil {
		return nil, err
	}

	return r.FindBySource(ctx, s.SourceID, s.SourceType)
}

// FindByID finds a supplement by its id
func (r *GormSupplementRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Supplement, error) {
	var model models.SupplementModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySource finds a supplement by its natural key
func (r *GormSupplementRepository) FindBySource(ctx context.Context, sourceID, sourceType string) (*catalog.Supplement, error) {
	var model models.SupplementModel
	err := r.db.WithContext(ctx).
		Where("source_id = ? AND source_type = ?", sourceID, sourceType).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns every active supplement ordered by name
func (r *GormSupplementRepository) FindActive(ctx context.Context) ([]catalog.Supplement, error) {
	var rows []models.SupplementModel
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	supplements := make([]catalog.Supplement, len(rows))
	for i := range rows {
		supplements[i] = *rows[i].ToDomain()
	}
	return supplements, nil
}

// Count returns the total number of stored supplements
func (r *GormSupplementRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SupplementModel{}).Count(&count).Error
	return count, err
}
