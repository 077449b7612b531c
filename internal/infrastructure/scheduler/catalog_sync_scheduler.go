package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appcatalog "github.com/vitaguide/backend/internal/application/catalog"
	"github.com/vitaguide/backend/internal/infrastructure/config"
	"github.com/vitaguide/backend/internal/infrastructure/logger"
)

// cronTickerInterval is how often the daily schedule is checked
const cronTickerInterval = 1 * time.Minute

// DefaultHistorySize is the number of finished jobs kept in memory
const DefaultHistorySize = 50

// Syncer runs one catalog sync
type Syncer interface {
	SyncProductsToDatabase(ctx context.Context) (*appcatalog.SyncResult, error)
}

// CatalogSyncSchedulerConfig holds the schedule for catalog sync
type CatalogSyncSchedulerConfig struct {
	Enabled bool
	// Interval runs the sync every Interval when set; otherwise the sync runs
	// daily at DailyHour:DailyMinute local time.
	Interval    time.Duration
	DailyHour   int
	DailyMinute int
	HistorySize int
	// RunTimeout bounds a single run. Zero means no timeout.
	RunTimeout time.Duration
}

// DefaultCatalogSyncSchedulerConfig runs the sync daily at 03:00
func DefaultCatalogSyncSchedulerConfig() CatalogSyncSchedulerConfig {
	return CatalogSyncSchedulerConfig{
		Enabled:     true,
		DailyHour:   3,
		DailyMinute: 0,
		HistorySize: DefaultHistorySize,
		RunTimeout:  time.Hour,
	}
}

// ConfigFromApp maps the application sync settings
func ConfigFromApp(cfg config.SyncConfig) CatalogSyncSchedulerConfig {
	return CatalogSyncSchedulerConfig{
		Enabled:     cfg.Enabled,
		Interval:    cfg.Interval,
		DailyHour:   cfg.DailyHour,
		DailyMinute: cfg.DailyMinute,
		HistorySize: cfg.HistorySize,
		RunTimeout:  cfg.RunTimeout,
	}
}

// Validate checks the schedule bounds
func (c CatalogSyncSchedulerConfig) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidConfig)
	}
	if c.DailyHour < 0 || c.DailyHour > 23 {
		return fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidConfig, c.DailyHour)
	}
	if c.DailyMinute < 0 || c.DailyMinute > 59 {
		return fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidConfig, c.DailyMinute)
	}
	return nil
}

// Mode returns "interval" or "daily"
func (c CatalogSyncSchedulerConfig) Mode() string {
	if c.Interval > 0 {
		return "interval"
	}
	return "daily"
}

// Status is a snapshot of the scheduler state
type Status struct {
	Enabled     bool       `json:"enabled"`
	Running     bool       `json:"running"`
	InProgress  bool       `json:"in_progress"`
	Mode        string     `json:"mode"`
	Interval    string     `json:"interval,omitempty"`
	DailyHour   int        `json:"daily_hour"`
	DailyMinute int        `json:"daily_minute"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
}

// CatalogSyncScheduler triggers catalog sync on a schedule or on demand.
// At most one run is in flight at any time.
type CatalogSyncScheduler struct {
	config       CatalogSyncSchedulerConfig
	syncer       Syncer
	logger       *zap.Logger
	now          func() time.Time
	tickInterval time.Duration

	inFlight atomic.Bool

	mu        sync.Mutex
	isRunning bool
	stopped   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	history   *jobHistory
	lastRunAt *time.Time
	nextRunAt *time.Time
	lastFired time.Time
}

// CatalogSyncSchedulerOption configures a CatalogSyncScheduler
type CatalogSyncSchedulerOption func(*CatalogSyncScheduler)

// WithSchedulerLogger sets the logger
func WithSchedulerLogger(l *zap.Logger) CatalogSyncSchedulerOption {
	return func(s *CatalogSyncScheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchedulerClock replaces time.Now
func WithSchedulerClock(now func() time.Time) CatalogSyncSchedulerOption {
	return func(s *CatalogSyncScheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTickInterval overrides how often the daily schedule is checked
func WithTickInterval(d time.Duration) CatalogSyncSchedulerOption {
	return func(s *CatalogSyncScheduler) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// NewCatalogSyncScheduler creates a scheduler around a syncer
func NewCatalogSyncScheduler(cfg CatalogSyncSchedulerConfig, syncer Syncer, opts ...CatalogSyncSchedulerOption) *CatalogSyncScheduler {
	s := &CatalogSyncScheduler{
		config:       cfg,
		syncer:       syncer,
		logger:       zap.NewNop(),
		now:          time.Now,
		tickInterval: cronTickerInterval,
		history:      newJobHistory(cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("catalog_sync_scheduler")
	return s
}

// ---------------------------------------------------------------------------
// On-demand runs
// ---------------------------------------------------------------------------

// RunNow runs a sync in the caller's goroutine. When a run is already in
// flight it returns ErrSyncAlreadyInProgress without touching the vendor.
func (s *CatalogSyncScheduler) RunNow(ctx context.Context, trigger Trigger) (*SyncJob, error) {
	if s.isStopped() {
		return nil, ErrSchedulerStopped
	}
	if !s.acquire(trigger) {
		return nil, ErrSyncAlreadyInProgress
	}
	defer s.inFlight.Store(false)

	return s.run(ctx, trigger, uuid.New())
}

// TriggerAsync starts a run in the background and returns its job id.
// The run is detached from ctx so it survives the HTTP request that started it.
func (s *CatalogSyncScheduler) TriggerAsync(trigger Trigger) (uuid.UUID, error) {
	// wg.Add must not race with the wg.Wait in Stop
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return uuid.Nil, ErrSchedulerStopped
	}
	if !s.acquire(trigger) {
		return uuid.Nil, ErrSyncAlreadyInProgress
	}

	id := uuid.New()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)
		_, _ = s.run(context.Background(), trigger, id)
	}()
	return id, nil
}

func (s *CatalogSyncScheduler) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// InProgress reports whether a run is in flight
func (s *CatalogSyncScheduler) InProgress() bool {
	return s.inFlight.Load()
}

func (s *CatalogSyncScheduler) acquire(trigger Trigger) bool {
	if s.inFlight.CompareAndSwap(false, true) {
		return true
	}
	s.logger.Warn("Catalog sync already in progress, skipping", zap.String("trigger", string(trigger)))
	return false
}

// run executes one sync and records it. The caller holds the in-flight flag.
func (s *CatalogSyncScheduler) run(ctx context.Context, trigger Trigger, id uuid.UUID) (*SyncJob, error) {
	ctx, log := logger.WithSyncRunID(ctx, s.logger, id.String())
	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	started := s.now()
	s.mu.Lock()
	s.lastRunAt = &started
	s.mu.Unlock()

	job := &SyncJob{
		ID:        id,
		Trigger:   trigger,
		Status:    JobStatusRunning,
		StartedAt: started,
	}
	log.Info("Catalog sync job started", zap.String("trigger", string(trigger)))

	result, err := s.execute(ctx)
	job.complete(result, err, s.now())

	s.mu.Lock()
	s.history.add(*job)
	s.mu.Unlock()

	fields := []zap.Field{
		zap.String("trigger", string(trigger)),
		zap.String("status", string(job.Status)),
		zap.Duration("duration", job.Duration()),
	}
	if job.Stats != nil {
		fields = append(fields,
			zap.Int("synced", job.Stats.Synced),
			zap.Int("failed", job.Stats.Failed),
			zap.Int("skipped", job.Stats.Skipped),
		)
	}
	if err != nil {
		log.Error("Catalog sync job failed", append(fields, zap.Error(err))...)
	} else {
		log.Info("Catalog sync job finished", fields...)
	}
	return job, err
}

func (s *CatalogSyncScheduler) execute(ctx context.Context) (result *appcatalog.SyncResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrSyncPanicked, r)
		}
	}()
	return s.syncer.SyncProductsToDatabase(ctx)
}

// ---------------------------------------------------------------------------
// Schedule
// ---------------------------------------------------------------------------

// Start begins the schedule loop. It is a no-op when disabled or already started.
func (s *CatalogSyncScheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.isStopped() {
		return ErrSchedulerStopped
	}
	if !s.config.Enabled {
		s.logger.Info("Catalog sync scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.calculateNextRunTime()

	s.wg.Add(1)
	if s.config.Interval > 0 {
		go s.intervalLoop(ctx)
	} else {
		go s.cronLoop(ctx)
	}

	s.logger.Info("Catalog sync scheduler started",
		zap.String("mode", s.config.Mode()),
		zap.Duration("interval", s.config.Interval),
		zap.Int("daily_hour", s.config.DailyHour),
		zap.Int("daily_minute", s.config.DailyMinute),
		zap.Timep("next_run_at", s.GetNextRunAt()),
	)
	return nil
}

// Stop ends the schedule loop and waits for an in-flight run until ctx expires.
// A stopped scheduler rejects further runs.
func (s *CatalogSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.isRunning = false
	s.stopped = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Catalog sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Catalog sync scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *CatalogSyncScheduler) intervalLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *CatalogSyncScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.shouldRun(s.now()) {
				s.fire(ctx)
			}
		}
	}
}

func (s *CatalogSyncScheduler) fire(ctx context.Context) {
	_, err := s.RunNow(ctx, TriggerScheduled)
	if err != nil && !errors.Is(err, ErrSyncAlreadyInProgress) && !errors.Is(err, ErrSchedulerStopped) {
		s.logger.Debug("Scheduled catalog sync returned an error", zap.Error(err))
	}
	s.calculateNextRunTime()
}

// shouldRun reports whether now falls in the daily slot and the slot has not fired yet
func (s *CatalogSyncScheduler) shouldRun(now time.Time) bool {
	if now.Hour() != s.config.DailyHour || now.Minute() != s.config.DailyMinute {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	slot := now.Truncate(time.Minute)
	if s.lastFired.Equal(slot) {
		return false
	}
	s.lastFired = slot
	return true
}

func (s *CatalogSyncScheduler) calculateNextRunTime() {
	now := s.now()
	var next time.Time
	if s.config.Interval > 0 {
		next = now.Add(s.config.Interval)
	} else {
		next = time.Date(now.Year(), now.Month(), now.Day(), s.config.DailyHour, s.config.DailyMinute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// History returns the recorded jobs, newest first
func (s *CatalogSyncScheduler) History() []SyncJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.list()
}

// GetStatus returns a snapshot of the scheduler state
func (s *CatalogSyncScheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Enabled:     s.config.Enabled,
		Running:     s.isRunning,
		InProgress:  s.inFlight.Load(),
		Mode:        s.config.Mode(),
		DailyHour:   s.config.DailyHour,
		DailyMinute: s.config.DailyMinute,
		LastRunAt:   s.lastRunAt,
		NextRunAt:   s.nextRunAt,
	}
	if s.config.Interval > 0 {
		st.Interval = s.config.Interval.String()
	}
	return st
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *CatalogSyncScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last run started
func (s *CatalogSyncScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}
