package erpsync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/telemetry"
)

// Run statuses reported to metrics and the scheduler
const (
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
	RunStatusRejected  = "rejected"
)

// FullSyncRunner runs one full synchronization pass
type FullSyncRunner interface {
	RunFullSync(ctx context.Context, tenantID uuid.UUID, kindNames []string, batchSize int) (*erpsync.BatchReport, error)
}

// SyncRunService guards full synchronization runs with a per-tenant lock,
// so at most one run per tenant is in flight across all instances.
type SyncRunService struct {
	runner  FullSyncRunner
	lock    erpsync.RunLock
	metrics Metrics
	logger  *zap.Logger
}

// NewSyncRunService creates a new SyncRunService
func NewSyncRunService(runner FullSyncRunner, lock erpsync.RunLock, metrics Metrics, logger *zap.Logger) *SyncRunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncRunService{
		runner:  runner,
		lock:    lock,
		metrics: metricsOrNop(metrics),
		logger:  logger,
	}
}

// Run acquires the tenant's lock and runs a full sync.
// It returns ErrSyncRunInProgress when another run holds the lock.
func (s *SyncRunService) Run(
	ctx context.Context,
	tenantID uuid.UUID,
	kindNames []string,
	batchSize int,
) (*erpsync.BatchReport, error) {
	start := time.Now()

	release, err := s.lock.Acquire(ctx, tenantID)
	if err != nil {
		s.metrics.RecordRun(ctx, tenantID, RunStatusRejected, time.Since(start))
		return nil, err
	}
	defer func() {
		// release even when the run's context was cancelled
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release sync run lock",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}()

	var (
		report *erpsync.BatchReport
		runErr error
	)
	telemetry.ProfileTenantRun(ctx, tenantID.String(), "full_sync", func(ctx context.Context) {
		report, runErr = s.runner.RunFullSync(ctx, tenantID, kindNames, batchSize)
	})

	s.metrics.RecordRun(ctx, tenantID, RunStatus(report, runErr), time.Since(start))
	return report, runErr
}

// RunStatus summarizes a run for metrics and job tracking
func RunStatus(report *erpsync.BatchReport, err error) string {
	switch {
	case err != nil || report == nil:
		return RunStatusFailed
	case report.HasFailures():
		return RunStatusPartial
	default:
		return RunStatusCompleted
	}
}
