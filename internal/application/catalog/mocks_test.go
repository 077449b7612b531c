package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/identity"
	"github.com/vitaguide/backend/internal/domain/integration"
	"github.com/vitaguide/backend/internal/domain/shared"
)

// MockCatalogClient is a mock implementation of integration.CatalogClient
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) FetchAllProducts(ctx context.Context) ([]integration.VendorProduct, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.VendorProduct), args.Error(1)
}

func (m *MockCatalogClient) FetchProductCard(ctx context.Context, vendorID string) *integration.VendorProductCard {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*integration.VendorProductCard)
}

// MockSupplementRepository is a mock implementation of catalog.SupplementRepository
type MockSupplementRepository struct {
	mock.Mock
}

func (m *MockSupplementRepository) Upsert(ctx context.Context, s *catalog.Supplement) (*catalog.Supplement, error) {
	args := m.Called(ctx, s)
	if fn, ok := args.Get(0).(func(context.Context, *catalog.Supplement) *catalog.Supplement); ok {
		return fn(ctx, s), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Supplement), args.Error(1)
}

func (m *MockSupplementRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Supplement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Supplement), args.Error(1)
}

func (m *MockSupplementRepository) FindBySource(ctx context.Context, sourceID, sourceType string) (*catalog.Supplement, error) {
	args := m.Called(ctx, sourceID, sourceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Supplement), args.Error(1)
}

func (m *MockSupplementRepository) FindActive(ctx context.Context) ([]catalog.Supplement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Supplement), args.Error(1)
}

func (m *MockSupplementRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserProfileReader is a mock implementation of identity.UserProfileReader
type MockUserProfileReader struct {
	mock.Mock
}

func (m *MockUserProfileReader) FindByID(ctx context.Context, id uuid.UUID) (*identity.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserProfile), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockSyncRecorder is a mock implementation of SyncRecorder
type MockSyncRecorder struct {
	mock.Mock
}

func (m *MockSyncRecorder) ObserveSyncRun(success bool, synced, failed, skipped int, duration time.Duration) {
	m.Called(success, synced, failed, skipped, duration)
}
