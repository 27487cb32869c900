package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// MaxRetryDelay caps the exponential retry backoff
const MaxRetryDelay = 30 * time.Minute

// FullSyncJobStatus represents the status of a full sync job
type FullSyncJobStatus string

const (
	FullSyncJobStatusPending   FullSyncJobStatus = "PENDING"
	FullSyncJobStatusRunning   FullSyncJobStatus = "RUNNING"
	FullSyncJobStatusCompleted FullSyncJobStatus = "COMPLETED"
	FullSyncJobStatusPartial   FullSyncJobStatus = "PARTIAL"
	FullSyncJobStatusFailed    FullSyncJobStatus = "FAILED"
)

// FullSyncJob tracks one scheduled full synchronization of a tenant
type FullSyncJob struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Status      FullSyncJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
	Report      *erpsync.BatchReport
}

// NewFullSyncJob creates a pending job
func NewFullSyncJob(tenantID uuid.UUID, maxRetries int) *FullSyncJob {
	return &FullSyncJob{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Status:     FullSyncJobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *FullSyncJob) Start(now time.Time) {
	j.Status = FullSyncJobStatusRunning
	j.StartedAt = &now
	j.CompletedAt = nil
	j.Error = ""
}

// Finish records the run's report. Any failed record or kind makes the job partial.
func (j *FullSyncJob) Finish(report *erpsync.BatchReport, now time.Time) {
	j.Report = report
	j.CompletedAt = &now
	if report != nil && report.HasFailures() {
		j.Status = FullSyncJobStatusPartial
		return
	}
	j.Status = FullSyncJobStatusCompleted
}

// Fail marks the job as failed
func (j *FullSyncJob) Fail(err error, now time.Time) {
	j.Status = FullSyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err.Error()
}

// ShouldRetry reports whether the failed job may run again.
// Only connection failures are retried; auth, configuration and lock
// conflicts fail for good.
func (j *FullSyncJob) ShouldRetry(err error) bool {
	return j.Status == FullSyncJobStatusFailed &&
		j.RetryCount < j.MaxRetries &&
		erpsync.IsRetryable(err)
}

// ScheduleRetry sets the job pending again after baseDelay * 2^retries, capped at MaxRetryDelay
func (j *FullSyncJob) ScheduleRetry(baseDelay time.Duration, now time.Time) time.Duration {
	delay := MaxRetryDelay
	if j.RetryCount < 32 {
		if d := baseDelay << j.RetryCount; d > 0 && d < MaxRetryDelay {
			delay = d
		}
	}
	j.RetryCount++
	j.Status = FullSyncJobStatusPending
	next := now.Add(delay)
	j.NextRetryAt = &next
	return delay
}

// Due reports whether a pending retry may run at now
func (j *FullSyncJob) Due(now time.Time) bool {
	return j.Status == FullSyncJobStatusPending && (j.NextRetryAt == nil || !now.Before(*j.NextRetryAt))
}
