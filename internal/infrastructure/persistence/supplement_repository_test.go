package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/identity"
	"github.com/vitaguide/backend/internal/domain/integration"
	"github.com/vitaguide/backend/internal/domain/shared"
)

func newSupplement(sourceID, name string) *catalog.Supplement {
	price := decimal.RequireFromString("129.9")
	image := "https://img.example/" + sourceID + ".png"
	return &catalog.Supplement{
		SourceID:     sourceID,
		SourceType:   integration.SourceVademecum,
		Name:         name,
		Description:  "Bağışıklık sistemini destekler",
		Brand:        "Acme",
		Manufacturer: "Acme İlaç A.Ş.",
		Form:         catalog.FormTablet,
		Ingredients:  []catalog.Ingredient{{Name: "C Vitamini", Amount: "500", Unit: "mg"}},
		Category:     []string{"vitamin", "bağışıklık"},
		Price:        &price,
		Currency:     "TRY",
		ImageURL:     &image,
		IsActive:     true,
		LastSynced:   time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC),
	}
}

func TestGormSupplementRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts a new supplement", func(t *testing.T) {
		repo := NewGormSupplementRepository(setupTestDB(t).DB)

		stored, err := repo.Upsert(ctx, newSupplement("101", "Vitamin C 500"))
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, stored.ID)
		assert.Equal(t, "Vitamin C 500", stored.Name)
		assert.Equal(t, catalog.FormTablet, stored.Form)
		assert.Equal(t, []string{"vitamin", "bağışıklık"}, stored.Category)
		require.Len(t, stored.Ingredients, 1)
		assert.Equal(t, "mg", stored.Ingredients[0].Unit)
		require.NotNil(t, stored.Price)
		assert.True(t, decimal.RequireFromString("129.9").Equal(*stored.Price))
		assert.True(t, stored.IsActive)
	})

	t.Run("same source key updates in place", func(t *testing.T) {
		repo := NewGormSupplementRepository(setupTestDB(t).DB)

		first, err := repo.Upsert(ctx, newSupplement("101", "Vitamin C 500"))
		require.NoError(t, err)

		changed := newSupplement("101", "Vitamin C 1000")
		changed.Price = nil
		changed.Category = []string{}
		second, err := repo.Upsert(ctx, changed)
		require.NoError(t, err)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Vitamin C 1000", second.Name)
		assert.Nil(t, second.Price)
		assert.Empty(t, second.Category)
	})

	t.Run("repeating the same upsert is idempotent", func(t *testing.T) {
		repo := NewGormSupplementRepository(setupTestDB(t).DB)

		for i := 0; i < 3; i++ {
			_, err := repo.Upsert(ctx, newSupplement("7", "Omega 3"))
			require.NoError(t, err)
		}

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("sync does not reactivate a hidden supplement", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormSupplementRepository(db.DB)

		first, err := repo.Upsert(ctx, newSupplement("55", "Biotin"))
		require.NoError(t, err)
		require.NoError(t, db.DB.Exec(`UPDATE supplements SET is_active = ? WHERE id = ?`, false, first.ID).Error)

		second, err := repo.Upsert(ctx, newSupplement("55", "Biotin Forte"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Biotin Forte", second.Name)
		assert.False(t, second.IsActive)

		active, err := repo.FindActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("different source types are different rows", func(t *testing.T) {
		repo := NewGormSupplementRepository(setupTestDB(t).DB)

		_, err := repo.Upsert(ctx, newSupplement("7", "Omega 3"))
		require.NoError(t, err)
		other := newSupplement("7", "Omega 3")
		other.SourceType = "manual"
		_, err = repo.Upsert(ctx, other)
		require.NoError(t, err)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormSupplementRepository_Finders(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSupplementRepository(setupTestDB(t).DB)

	zinc, err := repo.Upsert(ctx, newSupplement("2", "Zinc"))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, newSupplement("1", "Magnesium"))
	require.NoError(t, err)
	inactive := newSupplement("3", "Discontinued")
	inactive.IsActive = false
	_, err = repo.Upsert(ctx, inactive)
	require.NoError(t, err)

	t.Run("FindActive returns active rows by name", func(t *testing.T) {
		active, err := repo.FindActive(ctx)
		require.NoError(t, err)

		require.Len(t, active, 2)
		assert.Equal(t, "Magnesium", active[0].Name)
		assert.Equal(t, "Zinc", active[1].Name)
	})

	t.Run("FindByID", func(t *testing.T) {
		found, err := repo.FindByID(ctx, zinc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Zinc", found.Name)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindBySource", func(t *testing.T) {
		found, err := repo.FindBySource(ctx, "3", integration.SourceVademecum)
		require.NoError(t, err)
		assert.False(t, found.IsActive)

		_, err = repo.FindBySource(ctx, "3", "manual")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormSupplementRepository_UpsertSQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormSupplementRepository(db.DB)

	mock.ExpectExec(`INSERT INTO "supplements" .* ON CONFLICT \("source_id","source_type"\) DO UPDATE SET "name"="excluded"."name".*"currency"="excluded"."currency","image_url"="excluded"."image_url","last_synced"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "supplements" WHERE source_id = \$1 AND source_type = \$2`).
		WithArgs("101", integration.SourceVademecum, 1).
		WillReturnError(assert.AnError)

	_, err := repo.Upsert(context.Background(), newSupplement("101", "Vitamin C 500"))

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserProfileRepository(setupTestDB(t).DB)

	id := uuid.New()
	require.NoError(t, repo.Save(ctx, &identity.UserProfile{
		ID:              id,
		IsFormFilled:    true,
		SupplementGoals: []string{"enerji", "uyku"},
	}))

	t.Run("finds a saved profile", func(t *testing.T) {
		profile, err := repo.FindByID(ctx, id)
		require.NoError(t, err)

		assert.True(t, profile.IsFormFilled)
		assert.Equal(t, []string{"enerji", "uyku"}, profile.SupplementGoals)
	})

	t.Run("save replaces goals", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, &identity.UserProfile{ID: id, IsFormFilled: true}))

		profile, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, profile.SupplementGoals)
		assert.Empty(t, profile.SupplementGoals)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
