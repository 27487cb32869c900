package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/logger"
)

// TenantProvider lists tenants with an enabled ERP integration
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// SyncRunner runs one locked full synchronization for a tenant
type SyncRunner interface {
	Run(ctx context.Context, tenantID uuid.UUID, kindNames []string, batchSize int) (*erpsync.BatchReport, error)
}

// FullSyncSchedulerConfig holds configuration for the full sync scheduler
type FullSyncSchedulerConfig struct {
	// Interval between passes over all enabled tenants
	Interval time.Duration
	// RunTimeout bounds a single tenant's run
	RunTimeout time.Duration
	// MaxRetries is the number of retries after a connection failure
	MaxRetries int
	// RetryDelay is the base delay of the exponential backoff
	RetryDelay time.Duration
	// RetryPollInterval is how often due retries are checked
	RetryPollInterval time.Duration
	// EntityKinds limits the kinds synchronized; empty means all
	EntityKinds []string
	// BatchSize is the page size; 0 uses the orchestrator default
	BatchSize int
	// MaxHistory is the number of finished jobs kept for monitoring
	MaxHistory int
}

// DefaultFullSyncSchedulerConfig returns default configuration
func DefaultFullSyncSchedulerConfig() FullSyncSchedulerConfig {
	return FullSyncSchedulerConfig{
		Interval:          time.Hour,
		RunTimeout:        30 * time.Minute,
		MaxRetries:        3,
		RetryDelay:        time.Minute,
		RetryPollInterval: 30 * time.Second,
		MaxHistory:        100,
	}
}

// Validate validates the configuration
func (c *FullSyncSchedulerConfig) Validate() error {
	switch {
	case c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	case c.RunTimeout <= 0:
		return fmt.Errorf("%w: run timeout must be positive", ErrInvalidConfig)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max retries must not be negative", ErrInvalidConfig)
	case c.MaxRetries > 0 && c.RetryDelay <= 0:
		return fmt.Errorf("%w: retry delay must be positive", ErrInvalidConfig)
	case c.BatchSize < 0:
		return fmt.Errorf("%w: batch size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// FullSyncScheduler periodically runs a full synchronization for every
// enabled tenant, one tenant at a time
type FullSyncScheduler struct {
	config  FullSyncSchedulerConfig
	tenants TenantProvider
	runner  SyncRunner
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// runMu serializes tenant runs between the loop and RunNow
	runMu sync.Mutex

	retryMu sync.Mutex
	retries map[uuid.UUID]*FullSyncJob

	historyMu sync.RWMutex
	history   []*FullSyncJob
}

// NewFullSyncScheduler creates a new full sync scheduler
func NewFullSyncScheduler(
	config FullSyncSchedulerConfig,
	tenants TenantProvider,
	runner SyncRunner,
	logger *zap.Logger,
) (*FullSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.RetryPollInterval <= 0 {
		config.RetryPollInterval = 30 * time.Second
	}
	if config.MaxHistory <= 0 {
		config.MaxHistory = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FullSyncScheduler{
		config:  config,
		tenants: tenants,
		runner:  runner,
		logger:  logger,
		now:     time.Now,
		retries: make(map[uuid.UUID]*FullSyncJob),
		history: make([]*FullSyncJob, 0, config.MaxHistory),
	}, nil
}

// Start launches the scheduling loop. The first pass runs after one interval.
func (s *FullSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerAlreadyRunning
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Full sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
		zap.Int("max_retries", s.config.MaxRetries),
	)
	return nil
}

// Stop cancels the loop and waits for the current run to return
func (s *FullSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Full sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Full sync scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *FullSyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *FullSyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	retryTicker := time.NewTicker(s.config.RetryPollInterval)
	defer retryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunAll(ctx)
		case <-retryTicker.C:
			s.RunDueRetries(ctx)
		}
	}
}

// RunAll runs every enabled tenant in turn. Tenants waiting for a retry
// are left to the retry schedule.
func (s *FullSyncScheduler) RunAll(ctx context.Context) {
	tenantIDs, err := s.tenants.GetAllActiveTenantIDs(ctx)
	if err != nil {
		s.logger.Error("Failed to list tenants for full sync", zap.Error(err))
		return
	}
	s.logger.Info("Starting scheduled full sync pass", zap.Int("tenants", len(tenantIDs)))

	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			return
		}
		if s.pendingRetry(tenantID) != nil {
			s.logger.Debug("Skipping tenant awaiting retry", zap.String("tenant_id", tenantID.String()))
			continue
		}
		s.run(ctx, NewFullSyncJob(tenantID, s.config.MaxRetries))
	}
}

// RunDueRetries runs the retries whose backoff has elapsed
func (s *FullSyncScheduler) RunDueRetries(ctx context.Context) {
	now := s.now()

	s.retryMu.Lock()
	var due []*FullSyncJob
	for _, job := range s.retries {
		if job.Due(now) {
			due = append(due, job)
		}
	}
	s.retryMu.Unlock()

	for _, job := range due {
		if ctx.Err() != nil {
			return
		}
		s.run(ctx, job)
	}
}

// RunNow runs a tenant immediately, outside the schedule, and returns a
// snapshot of the finished attempt. A pending retry is consumed by the run.
func (s *FullSyncScheduler) RunNow(ctx context.Context, tenantID uuid.UUID) FullSyncJob {
	job := s.pendingRetry(tenantID)
	if job == nil {
		job = NewFullSyncJob(tenantID, s.config.MaxRetries)
	}
	s.run(ctx, job)

	// run mutates jobs under runMu, including a retry picked up by the loop
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return *job
}

func (s *FullSyncScheduler) run(ctx context.Context, job *FullSyncJob) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	// a running job is never in the retry map
	s.clearRetry(job.TenantID)

	ctx = logger.WithTenantID(ctx, job.TenantID.String())
	ctx = logger.WithRunID(ctx, job.ID.String())
	log := logger.WithLogger(ctx, s.logger)

	job.Start(s.now())
	log.Info("Running scheduled full sync", zap.Int("retry_count", job.RetryCount))

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	report, err := s.runner.Run(runCtx, job.TenantID, s.config.EntityKinds, s.config.BatchSize)
	if err != nil {
		job.Fail(err, s.now())
		s.handleFailure(log, job, err)
		s.addToHistory(job)
		return
	}

	job.Finish(report, s.now())

	created, exists, failed := report.Totals()
	log.Info("Scheduled full sync finished",
		zap.String("status", string(job.Status)),
		zap.Int("created", created),
		zap.Int("exists", exists),
		zap.Int("failed", failed),
	)
	s.addToHistory(job)
}

func (s *FullSyncScheduler) handleFailure(log *logger.ContextLogger, job *FullSyncJob, err error) {
	if errors.Is(err, erpsync.ErrSyncRunInProgress) {
		log.Info("Full sync skipped, tenant already running")
		return
	}

	if !job.ShouldRetry(err) {
		log.Error("Scheduled full sync failed", zap.Error(err), zap.Int("retry_count", job.RetryCount))
		return
	}

	delay := job.ScheduleRetry(s.config.RetryDelay, s.now())
	log.Warn("Scheduled full sync failed, retry scheduled",
		zap.Error(err),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", delay),
		zap.Time("next_retry_at", *job.NextRetryAt),
	)

	s.retryMu.Lock()
	s.retries[job.TenantID] = job
	s.retryMu.Unlock()
}

func (s *FullSyncScheduler) pendingRetry(tenantID uuid.UUID) *FullSyncJob {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	return s.retries[tenantID]
}

func (s *FullSyncScheduler) clearRetry(tenantID uuid.UUID) {
	s.retryMu.Lock()
	delete(s.retries, tenantID)
	s.retryMu.Unlock()
}

// PendingRetry returns a snapshot of the tenant's scheduled retry.
// Jobs in the retry map are only mutated after leaving it.
func (s *FullSyncScheduler) PendingRetry(tenantID uuid.UUID) (FullSyncJob, bool) {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	job, ok := s.retries[tenantID]
	if !ok {
		return FullSyncJob{}, false
	}
	return *job, true
}

func (s *FullSyncScheduler) addToHistory(job *FullSyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	snapshot := *job
	s.history = append([]*FullSyncJob{&snapshot}, s.history...)
	if len(s.history) > s.config.MaxHistory {
		s.history = s.history[:s.config.MaxHistory]
	}
}

// GetJobHistoryByTenant returns the tenant's recent finished attempts,
// newest first. A limit <= 0 returns all of them.
func (s *FullSyncScheduler) GetJobHistoryByTenant(tenantID uuid.UUID, limit int) []*FullSyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	var result []*FullSyncJob
	for _, job := range s.history {
		if job.TenantID != tenantID {
			continue
		}
		result = append(result, job)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}
