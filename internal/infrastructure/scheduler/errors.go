package scheduler

import "errors"

var (
	// ErrSchedulerStopped is returned when a run is requested after Stop
	ErrSchedulerStopped = errors.New("scheduler has been stopped")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSyncAlreadyInProgress is returned when a catalog sync is already running
	ErrSyncAlreadyInProgress = errors.New("catalog sync already in progress")

	// ErrSyncPanicked wraps a panic recovered from a sync run
	ErrSyncPanicked = errors.New("catalog sync panicked")
)
