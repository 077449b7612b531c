package scheduler

import (
	"time"

	"github.com/google/uuid"

	appcatalog "github.com/vitaguide/backend/internal/application/catalog"
)

// JobStatus is the outcome of a sync job
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusPartial JobStatus = "PARTIAL"
	JobStatusFailed  JobStatus = "FAILED"
)

// Trigger names what started a job
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
	TriggerStartup   Trigger = "startup"
)

// SyncJob records one catalog sync execution
type SyncJob struct {
	ID         uuid.UUID             `json:"id"`
	Trigger    Trigger               `json:"trigger"`
	Status     JobStatus             `json:"status"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
	Stats      *appcatalog.SyncStats `json:"stats,omitempty"`
	Errors     []string              `json:"errors,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// Duration returns the run time of a finished job
func (j *SyncJob) Duration() time.Duration {
	if j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// complete derives the final status from the sync outcome
func (j *SyncJob) complete(result *appcatalog.SyncResult, err error, at time.Time) {
	j.FinishedAt = &at
	switch {
	case err != nil:
		j.Status = JobStatusFailed
		j.Error = err.Error()
	case result == nil:
		j.Status = JobStatusFailed
		j.Error = "sync returned no result"
	default:
		stats := result.Stats
		j.Stats = &stats
		j.Errors = result.Errors
		if result.Success {
			j.Status = JobStatusSuccess
		} else {
			j.Status = JobStatusPartial
		}
		if result.Interrupted {
			j.Error = result.Message
		}
	}
}

// jobHistory keeps the most recent jobs, newest first
type jobHistory struct {
	limit int
	jobs  []SyncJob
}

func newJobHistory(limit int) *jobHistory {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &jobHistory{limit: limit, jobs: make([]SyncJob, 0, limit)}
}

func (h *jobHistory) add(job SyncJob) {
	h.jobs = append([]SyncJob{job}, h.jobs...)
	if len(h.jobs) > h.limit {
		h.jobs = h.jobs[:h.limit]
	}
}

func (h *jobHistory) list() []SyncJob {
	return append([]SyncJob(nil), h.jobs...)
}
