package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vitaguide/backend/internal/domain/integration"
	"github.com/vitaguide/backend/internal/infrastructure/cache"
	"github.com/vitaguide/backend/internal/infrastructure/scheduler"
	"github.com/vitaguide/backend/internal/interfaces/http/dto"
)

// SyncRunner starts catalog sync runs and reports on them
type SyncRunner interface {
	RunNow(ctx context.Context, trigger scheduler.Trigger) (*scheduler.SyncJob, error)
	TriggerAsync(trigger scheduler.Trigger) (uuid.UUID, error)
	History() []scheduler.SyncJob
	GetStatus() scheduler.Status
}

// CacheAdmin exposes catalog cache maintenance
type CacheAdmin interface {
	Stats() cache.CacheStats
	Clear(ctx context.Context)
}

var (
	_ SyncRunner = (*scheduler.CatalogSyncScheduler)(nil)
	_ CacheAdmin = (*cache.CatalogCache)(nil)
)

// CatalogAdminHandler serves the admin catalog endpoints
type CatalogAdminHandler struct {
	BaseHandler
	syncs SyncRunner
	cache CacheAdmin
}

// NewCatalogAdminHandler creates a new CatalogAdminHandler
func NewCatalogAdminHandler(syncs SyncRunner, catalogCache CacheAdmin) *CatalogAdminHandler {
	return &CatalogAdminHandler{syncs: syncs, cache: catalogCache}
}

// RegisterRoutes implements router.RouteRegistrar.
// Callers attach authentication and the admin role gate to rg.
func (h *CatalogAdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	catalog := rg.Group("/admin/catalog")
	catalog.POST("/sync", h.TriggerSync)
	catalog.GET("/sync/history", h.GetSyncHistory)
	catalog.GET("/cache/stats", h.GetCacheStats)
	catalog.DELETE("/cache", h.ClearCache)
}

// SyncAcceptedResponse is returned when a sync is started in the background
type SyncAcceptedResponse struct {
	JobID   uuid.UUID `json:"job_id"`
	Message string    `json:"message"`
}

// SyncHistoryResponse lists recent runs, newest first
type SyncHistoryResponse struct {
	Scheduler scheduler.Status    `json:"scheduler"`
	Jobs      []scheduler.SyncJob `json:"jobs"`
}

// TriggerSync starts a manual sync. By default the run happens in the
// background and the job ID is returned with 202. With ?wait=true the
// request blocks until the run finishes.
func (h *CatalogAdminHandler) TriggerSync(c *gin.Context) {
	wait := false
	if raw := c.Query("wait"); raw != "" {
		var err error
		wait, err = strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "wait must be a boolean")
			return
		}
	}

	if !wait {
		id, err := h.syncs.TriggerAsync(scheduler.TriggerManual)
		if err != nil {
			h.handleSyncError(c, nil, err)
			return
		}
		h.Accepted(c, SyncAcceptedResponse{JobID: id, Message: "Catalog sync started"})
		return
	}

	job, err := h.syncs.RunNow(c.Request.Context(), scheduler.TriggerManual)
	if err != nil {
		h.handleSyncError(c, job, err)
		return
	}
	h.Success(c, job)
}

func (h *CatalogAdminHandler) handleSyncError(c *gin.Context, job *scheduler.SyncJob, err error) {
	switch {
	case errors.Is(err, scheduler.ErrSyncAlreadyInProgress):
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, "A catalog sync is already in progress")
	case errors.Is(err, scheduler.ErrSchedulerStopped):
		h.ErrorWithCode(c, dto.ErrCodeShuttingDown, "Catalog sync is unavailable while the server shuts down")
	case errors.Is(err, integration.ErrFetchProducts):
		message := "Failed to fetch products"
		if job != nil && job.Error != "" {
			message = job.Error
		}
		h.ErrorWithCode(c, dto.ErrCodeVendorUnavailable, message)
	default:
		_ = c.Error(err)
		h.InternalError(c, "Catalog sync failed")
	}
}

// GetSyncHistory returns the scheduler state and the recent runs
func (h *CatalogAdminHandler) GetSyncHistory(c *gin.Context) {
	jobs := h.syncs.History()
	if jobs == nil {
		jobs = []scheduler.SyncJob{}
	}
	h.Success(c, SyncHistoryResponse{
		Scheduler: h.syncs.GetStatus(),
		Jobs:      jobs,
	})
}

// GetCacheStats returns a snapshot of the catalog cache
func (h *CatalogAdminHandler) GetCacheStats(c *gin.Context) {
	h.Success(c, h.cache.Stats())
}

// ClearCache drops every cached card and the product list
func (h *CatalogAdminHandler) ClearCache(c *gin.Context) {
	h.cache.Clear(c.Request.Context())
	h.Success(c, h.cache.Stats())
}
