package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/integration"
	"github.com/vitaguide/backend/internal/domain/shared"
	"github.com/vitaguide/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultSyncConcurrency is the number of items processed in parallel
const DefaultSyncConcurrency = 4

// Span names
const (
	SpanSyncRun  = "catalog.sync"
	SpanSyncItem = "catalog.sync_item"
)

// SyncRecorder observes finished sync runs
type SyncRecorder interface {
	ObserveSyncRun(success bool, synced, failed, skipped int, duration time.Duration)
}

// SyncService pulls the vendor catalog and upserts it into storage
type SyncService struct {
	client      integration.CatalogClient
	repo        catalog.SupplementWriter
	validate    *validator.Validate
	publisher   shared.EventPublisher
	recorder    SyncRecorder
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// SyncServiceOption configures a SyncService
type SyncServiceOption func(*SyncService)

// WithSyncLogger sets the logger
func WithSyncLogger(logger *zap.Logger) SyncServiceOption {
	return func(s *SyncService) {
		s.logger = logger
	}
}

// WithSyncConcurrency sets how many items are processed in parallel
func WithSyncConcurrency(n int) SyncServiceOption {
	return func(s *SyncService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSyncEventPublisher publishes a SyncCompletedEvent after each run
func WithSyncEventPublisher(p shared.EventPublisher) SyncServiceOption {
	return func(s *SyncService) {
		s.publisher = p
	}
}

// WithSyncRecorder sets the run observer
func WithSyncRecorder(r SyncRecorder) SyncServiceOption {
	return func(s *SyncService) {
		s.recorder = r
	}
}

// WithSyncClock overrides the time source
func WithSyncClock(now func() time.Time) SyncServiceOption {
	return func(s *SyncService) {
		s.now = now
	}
}

// NewSyncService creates a new SyncService
func NewSyncService(client integration.CatalogClient, repo catalog.SupplementWriter, opts ...SyncServiceOption) *SyncService {
	s := &SyncService{
		client:      client,
		repo:        repo,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      zap.NewNop(),
		concurrency: DefaultSyncConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type itemStatus int

const (
	itemSynced itemStatus = iota
	itemFailed
	itemSkipped
	// itemInterrupted is an item left unprocessed because the run context ended
	itemInterrupted
)

func (st itemStatus) String() string {
	switch st {
	case itemSynced:
		return "synced"
	case itemFailed:
		return "failed"
	case itemSkipped:
		return "skipped"
	case itemInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

type itemOutcome struct {
	status itemStatus
	brand  string
	err    string
	stage  string
	cause  error
}

// SyncProductsToDatabase runs one full catalog sync.
// Only a failed listing fetch returns an error; per-item problems are counted in the result.
// Callers must not run it concurrently with itself.
func (s *SyncService) SyncProductsToDatabase(ctx context.Context) (*SyncResult, error) {
	ctx, span := telemetry.StartSpan(ctx, SpanSyncRun,
		telemetry.WithAttribute(telemetry.AttrSyncSource, integration.SourceVademecum))
	defer span.End()

	started := s.now()
	s.logger.Info("Catalog sync started",
		zap.String("source", integration.SourceVademecum),
		zap.String("trace_id", telemetry.TraceID(ctx)),
	)

	products, err := s.client.FetchAllProducts(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Catalog sync aborted: listing fetch failed", zap.Error(err))
		if s.recorder != nil {
			s.recorder.ObserveSyncRun(false, 0, 0, 0, s.now().Sub(started))
		}
		return nil, err
	}

	result := &SyncResult{
		Stats:       SyncStats{Total: len(products)},
		Errors:      []string{},
		BrandCounts: make(map[string]int),
		StartedAt:   started,
	}

	if len(products) > 0 {
		s.processItems(ctx, products, result)
	}

	s.finish(ctx, result)

	telemetry.SetAttributes(span,
		telemetry.AttrSyncTotal, result.Stats.Total,
		telemetry.AttrSyncSynced, result.Stats.Synced,
		telemetry.AttrSyncFailed, result.Stats.Failed,
		telemetry.AttrSyncSkipped, result.Stats.Skipped,
		telemetry.AttrSyncInterrupted, result.Interrupted,
	)
	if result.Success {
		telemetry.SetOK(span)
	} else {
		telemetry.SetError(span, result.Message)
	}
	return result, nil
}

func (s *SyncService) processItems(ctx context.Context, products []integration.VendorProduct, result *SyncResult) {
	workers := s.concurrency
	if workers > len(products) {
		workers = len(products)
	}

	jobs := make(chan integration.VendorProduct)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				out := s.syncItem(ctx, p)

				mu.Lock()
				switch out.status {
				case itemSynced:
					result.Stats.Synced++
					result.BrandCounts[out.brand]++
				case itemFailed:
					result.Stats.Failed++
					result.Errors = append(result.Errors, out.err)
				case itemInterrupted:
					result.Stats.Skipped++
					result.Interrupted = true
				default:
					result.Stats.Skipped++
				}
				mu.Unlock()
			}
		}()
	}

	for _, p := range products {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
}

// syncItem fetches, normalizes and upserts one listed product
func (s *SyncService) syncItem(ctx context.Context, p integration.VendorProduct) (out itemOutcome) {
	ctx, span := telemetry.StartSpan(ctx, SpanSyncItem,
		telemetry.WithAttribute(telemetry.AttrSourceID, p.SourceID()))
	defer func() {
		if r := recover(); r != nil {
			out = s.failed(p, "panic", fmt.Errorf("%v", r))
		}
		telemetry.SetAttributes(span, telemetry.AttrItemOutcome, out.status.String())
		switch out.status {
		case itemFailed:
			telemetry.SetAttributes(span, telemetry.AttrItemStage, out.stage)
			telemetry.RecordError(span, out.cause)
		case itemSynced:
			telemetry.SetOK(span)
		}
		span.End()
	}()

	if ctx.Err() != nil {
		return itemOutcome{status: itemInterrupted}
	}

	card := s.client.FetchProductCard(ctx, p.SourceID())
	if card == nil {
		if ctx.Err() != nil {
			return itemOutcome{status: itemInterrupted}
		}
		s.logger.Debug("Product card unavailable, skipping",
			zap.String("source_id", p.SourceID()),
			zap.String("name", p.Name),
		)
		return itemOutcome{status: itemSkipped}
	}

	supplement, err := MapProductCardToSupplement(card, s.now())
	if err != nil {
		return s.failed(p, "normalize", err)
	}
	if err := s.validate.StructCtx(ctx, supplement); err != nil {
		return s.failed(p, "validate", err)
	}

	stored, err := s.repo.Upsert(ctx, supplement)
	if err != nil {
		return s.failed(p, "upsert", err)
	}

	brand := supplement.Brand
	if stored != nil {
		brand = stored.Brand
	}
	return itemOutcome{status: itemSynced, brand: brand}
}

func (s *SyncService) failed(p integration.VendorProduct, stage string, err error) itemOutcome {
	msg := fmt.Sprintf("product %s (%s): %s: %v", p.SourceID(), p.Name, stage, err)
	s.logger.Warn("Product sync failed",
		zap.String("source_id", p.SourceID()),
		zap.String("stage", stage),
		zap.Error(err),
	)
	return itemOutcome{status: itemFailed, err: msg, stage: stage, cause: err}
}

func (s *SyncService) finish(ctx context.Context, result *SyncResult) {
	result.FinishedAt = s.now()
	result.Success = result.Stats.Failed == 0 && !result.Interrupted
	result.Message = fmt.Sprintf("Synced %d of %d products (%d failed, %d skipped)",
		result.Stats.Synced, result.Stats.Total, result.Stats.Failed, result.Stats.Skipped)
	if result.Interrupted {
		result.Message += fmt.Sprintf("; interrupted: %v", context.Cause(ctx))
	}

	fields := []zap.Field{
		zap.Bool("success", result.Success),
		zap.Int("total", result.Stats.Total),
		zap.Int("synced", result.Stats.Synced),
		zap.Int("failed", result.Stats.Failed),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Bool("interrupted", result.Interrupted),
		zap.Duration("duration", result.Duration()),
	}
	if result.Success {
		s.logger.Info("Catalog sync completed", fields...)
	} else {
		s.logger.Warn("Catalog sync completed with failures", append(fields, zap.Strings("errors", result.Errors))...)
	}

	if s.recorder != nil {
		s.recorder.ObserveSyncRun(result.Success, result.Stats.Synced, result.Stats.Failed, result.Stats.Skipped, result.Duration())
	}

	if s.publisher != nil {
		event := catalog.NewSyncCompletedEvent(
			result.Success,
			result.Stats.Total,
			result.Stats.Synced,
			result.Stats.Failed,
			result.Stats.Skipped,
			result.BrandCounts,
			result.Duration().Milliseconds(),
		)
		// the summary is still published when the run context has expired
		if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
			s.logger.Error("Failed to publish sync completed event", zap.Error(err))
		}
	}
}
