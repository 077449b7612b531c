package catalog

import (
	"context"

	"github.com/google/uuid"
)

// SupplementWriter persists supplements during catalog sync
type SupplementWriter interface {
	// Upsert creates or updates the supplement identified by (SourceID, SourceType)
	// and returns the stored record.
	Upsert(ctx context.Context, s *Supplement) (*Supplement, error)
}

// SupplementReader reads supplements for recommendations and admin views
type SupplementReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Supplement, error)
	FindBySource(ctx context.Context, sourceID, sourceType string) (*Supplement, error)
	FindActive(ctx context.Context) ([]Supplement, error)
	Count(ctx context.Context) (int64, error)
}

// SupplementRepository combines read and write access
type SupplementRepository interface {
	SupplementReader
	SupplementWriter
}
