package catalog

import "github.com/vitaguide/backend/internal/domain/shared"

const (
	// AggregateTypeCatalog is the aggregate type for catalog-wide events
	AggregateTypeCatalog = "Catalog"

	// EventTypeSyncCompleted is published after every finished sync run
	EventTypeSyncCompleted = "catalog.sync_completed"
)

// SyncCompletedEvent summarizes one catalog sync run
type SyncCompletedEvent struct {
	shared.BaseDomainEvent
	Success     bool           `json:"success"`
	Total       int            `json:"total"`
	Synced      int            `json:"synced"`
	Failed      int            `json:"failed"`
	Skipped     int            `json:"skipped"`
	BrandCounts map[string]int `json:"brand_counts,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

// NewSyncCompletedEvent creates a SyncCompletedEvent
func NewSyncCompletedEvent(success bool, total, synced, failed, skipped int, brandCounts map[string]int, durationMs int64) *SyncCompletedEvent {
	return &SyncCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSyncCompleted, AggregateTypeCatalog),
		Success:         success,
		Total:           total,
		Synced:          synced,
		Failed:          failed,
		Skipped:         skipped,
		BrandCounts:     brandCounts,
		DurationMs:      durationMs,
	}
}
