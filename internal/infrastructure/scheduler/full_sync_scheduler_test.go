package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/logger"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

type mockTenantProvider struct {
	mock.Mock
}

func (m *mockTenantProvider) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

// scriptedRunner returns queued results per tenant and records every call
type scriptedRunner struct {
	mu      sync.Mutex
	results map[uuid.UUID][]error
	calls   []uuid.UUID
	runIDs  []string
	reports map[uuid.UUID]*erpsync.BatchReport
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{
		results: map[uuid.UUID][]error{},
		reports: map[uuid.UUID]*erpsync.BatchReport{},
	}
}

func (r *scriptedRunner) Run(ctx context.Context, tenantID uuid.UUID, _ []string, _ int) (*erpsync.BatchReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, tenantID)
	r.runIDs = append(r.runIDs, logger.GetRunID(ctx))

	if queue := r.results[tenantID]; len(queue) > 0 {
		err := queue[0]
		r.results[tenantID] = queue[1:]
		if err != nil {
			return nil, err
		}
	}
	if report, ok := r.reports[tenantID]; ok {
		return report, nil
	}
	return &erpsync.BatchReport{TenantID: tenantID}, nil
}

func (r *scriptedRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testConfig() FullSyncSchedulerConfig {
	cfg := DefaultFullSyncSchedulerConfig()
	cfg.RetryDelay = time.Minute
	return cfg
}

func newTestScheduler(t *testing.T, tenants TenantProvider, runner SyncRunner) (*FullSyncScheduler, *time.Time) {
	t.Helper()
	s, err := NewFullSyncScheduler(testConfig(), tenants, runner, zap.NewNop())
	require.NoError(t, err)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func pendingRetry(s *FullSyncScheduler, tenantID uuid.UUID) *FullSyncJob {
	job, ok := s.PendingRetry(tenantID)
	if !ok {
		return nil
	}
	return &job
}

var errUnreachable = erpsync.NewConnectionError(0, "dial tcp: connection refused", nil)

// ---------------------------------------------------------------------------
// FullSyncJob Tests
// ---------------------------------------------------------------------------

func TestFullSyncJob_Lifecycle(t *testing.T) {
	now := time.Now()
	job := NewFullSyncJob(uuid.New(), 3)
	assert.Equal(t, FullSyncJobStatusPending, job.Status)
	assert.True(t, job.Due(now))

	job.Start(now)
	assert.Equal(t, FullSyncJobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	job.Finish(&erpsync.BatchReport{Kinds: []erpsync.KindReport{{Kind: "customer", Created: 2}}}, now)
	assert.Equal(t, FullSyncJobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)

	job.Start(now)
	job.Finish(&erpsync.BatchReport{Kinds: []erpsync.KindReport{{Kind: "order", Failed: 1}}}, now)
	assert.Equal(t, FullSyncJobStatusPartial, job.Status)

	job.Start(now)
	job.Fail(errors.New("boom"), now)
	assert.Equal(t, FullSyncJobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.Error)
}

func TestFullSyncJob_ShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		retryCount int
		expected   bool
	}{
		{"connection failure", errUnreachable, 0, true},
		{"timeout", erpsync.NewTimeoutError(context.DeadlineExceeded), 2, true},
		{"retries exhausted", errUnreachable, 3, false},
		{"auth failure", erpsync.NewAuthError(401, "Invalid credentials"), 0, false},
		{"missing config", erpsync.ErrConfigNotFound, 0, false},
		{"run in progress", erpsync.ErrSyncRunInProgress, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewFullSyncJob(uuid.New(), 3)
			job.RetryCount = tt.retryCount
			job.Fail(tt.err, time.Now())
			assert.Equal(t, tt.expected, job.ShouldRetry(tt.err))
		})
	}
}

func TestFullSyncJob_ScheduleRetryBackoff(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	job := NewFullSyncJob(uuid.New(), 10)

	expected := []time.Duration{
		time.Minute,
		2 * time.Minute,
		4 * time.Minute,
		8 * time.Minute,
		16 * time.Minute,
		30 * time.Minute,
		30 * time.Minute,
	}
	for i, want := range expected {
		delay := job.ScheduleRetry(time.Minute, now)
		assert.Equal(t, want, delay, "retry %d", i+1)
		assert.Equal(t, i+1, job.RetryCount)
		assert.Equal(t, FullSyncJobStatusPending, job.Status)
		assert.Equal(t, now.Add(want), *job.NextRetryAt)
	}

	assert.False(t, job.Due(now))
	assert.True(t, job.Due(now.Add(30*time.Minute)))

	job.RetryCount = 62
	assert.Equal(t, MaxRetryDelay, job.ScheduleRetry(time.Minute, now))
}

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestFullSyncSchedulerConfig_Validate(t *testing.T) {
	valid := DefaultFullSyncSchedulerConfig()
	require.NoError(t, valid.Validate())

	tests := map[string]func(*FullSyncSchedulerConfig){
		"zero interval":      func(c *FullSyncSchedulerConfig) { c.Interval = 0 },
		"zero run timeout":   func(c *FullSyncSchedulerConfig) { c.RunTimeout = 0 },
		"negative retries":   func(c *FullSyncSchedulerConfig) { c.MaxRetries = -1 },
		"retries w/o delay":  func(c *FullSyncSchedulerConfig) { c.RetryDelay = 0 },
		"negative batchsize": func(c *FullSyncSchedulerConfig) { c.BatchSize = -5 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultFullSyncSchedulerConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

			_, err := NewFullSyncScheduler(cfg, &mockTenantProvider{}, newScriptedRunner(), nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

// ---------------------------------------------------------------------------
// FullSyncScheduler Tests
// ---------------------------------------------------------------------------

func TestFullSyncScheduler_RunAll(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	tenants := &mockTenantProvider{}
	tenants.On("GetAllActiveTenantIDs", mock.Anything).Return([]uuid.UUID{a, b}, nil)

	runner := newScriptedRunner()
	runner.reports[b] = &erpsync.BatchReport{
		TenantID: b,
		Kinds:    []erpsync.KindReport{{Kind: "product", Created: 1, Failed: 1}},
	}
	s, _ := newTestScheduler(t, tenants, runner)

	s.RunAll(context.Background())

	assert.Equal(t, []uuid.UUID{a, b}, runner.calls, "tenants run sequentially in listed order")
	for _, runID := range runner.runIDs {
		assert.NotEmpty(t, runID, "each run carries a run id")
	}

	historyA := s.GetJobHistoryByTenant(a, 10)
	require.Len(t, historyA, 1)
	assert.Equal(t, FullSyncJobStatusCompleted, historyA[0].Status)
	historyB := s.GetJobHistoryByTenant(b, 10)
	require.Len(t, historyB, 1)
	assert.Equal(t, FullSyncJobStatusPartial, historyB[0].Status)
	tenants.AssertExpectations(t)
}

func TestFullSyncScheduler_RunAllListFailure(t *testing.T) {
	tenants := &mockTenantProvider{}
	tenants.On("GetAllActiveTenantIDs", mock.Anything).Return(nil, errors.New("db down"))
	runner := newScriptedRunner()
	s, _ := newTestScheduler(t, tenants, runner)

	s.RunAll(context.Background())

	assert.Zero(t, runner.callCount())
	assert.Empty(t, s.history)
}

func TestFullSyncScheduler_RetriesConnectionFailures(t *testing.T) {
	tenantID := uuid.New()
	tenants := &mockTenantProvider{}
	tenants.On("GetAllActiveTenantIDs", mock.Anything).Return([]uuid.UUID{tenantID}, nil)

	runner := newScriptedRunner()
	runner.results[tenantID] = []error{errUnreachable, errUnreachable, nil}
	s, now := newTestScheduler(t, tenants, runner)
	ctx := context.Background()

	s.RunAll(ctx)
	job := pendingRetry(s, tenantID)
	require.NotNil(t, job)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, now.Add(time.Minute), *job.NextRetryAt)

	// not due yet, and the regular pass leaves the tenant to the retry
	s.RunDueRetries(ctx)
	s.RunAll(ctx)
	assert.Equal(t, 1, runner.callCount())

	*now = now.Add(time.Minute)
	s.RunDueRetries(ctx)
	assert.Equal(t, 2, runner.callCount())
	job = pendingRetry(s, tenantID)
	require.NotNil(t, job)
	assert.Equal(t, 2, job.RetryCount)
	assert.Equal(t, now.Add(2*time.Minute), *job.NextRetryAt)

	*now = now.Add(2 * time.Minute)
	s.RunDueRetries(ctx)
	assert.Equal(t, 3, runner.callCount())
	assert.Nil(t, pendingRetry(s, tenantID))

	history := s.GetJobHistoryByTenant(tenantID, 10)
	require.Len(t, history, 3)
	assert.Equal(t, FullSyncJobStatusCompleted, history[0].Status)
	assert.Equal(t, FullSyncJobStatusFailed, history[1].Status)
}

func TestFullSyncScheduler_GivesUpAfterMaxRetries(t *testing.T) {
	tenantID := uuid.New()
	runner := newScriptedRunner()
	runner.results[tenantID] = []error{errUnreachable, errUnreachable, errUnreachable, errUnreachable, errUnreachable}

	s, now := newTestScheduler(t, &mockTenantProvider{}, runner)
	ctx := context.Background()

	s.RunNow(ctx, tenantID)
	for i := 0; i < 5; i++ {
		*now = now.Add(MaxRetryDelay)
		s.RunDueRetries(ctx)
	}

	assert.Equal(t, 4, runner.callCount(), "one run plus three retries")
	assert.Nil(t, pendingRetry(s, tenantID))
}

func TestFullSyncScheduler_NoRetryForPermanentFailures(t *testing.T) {
	for name, err := range map[string]error{
		"auth":        erpsync.NewAuthError(401, "Invalid credentials"),
		"disabled":    erpsync.ErrConfigDisabled,
		"in progress": erpsync.ErrSyncRunInProgress,
	} {
		t.Run(name, func(t *testing.T) {
			tenantID := uuid.New()
			runner := newScriptedRunner()
			runner.results[tenantID] = []error{err}
			s, _ := newTestScheduler(t, &mockTenantProvider{}, runner)

			job := s.RunNow(context.Background(), tenantID)
			assert.Equal(t, FullSyncJobStatusFailed, job.Status)
			assert.Nil(t, pendingRetry(s, tenantID))
		})
	}
}

func TestFullSyncScheduler_RunNowReusesPendingRetry(t *testing.T) {
	tenantID := uuid.New()
	runner := newScriptedRunner()
	runner.results[tenantID] = []error{errUnreachable}
	s, _ := newTestScheduler(t, &mockTenantProvider{}, runner)
	ctx := context.Background()

	first := s.RunNow(ctx, tenantID)
	assert.Equal(t, FullSyncJobStatusPending, first.Status)
	require.NotNil(t, pendingRetry(s, tenantID))

	second := s.RunNow(ctx, tenantID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.RetryCount)
	assert.Equal(t, FullSyncJobStatusCompleted, second.Status)
	assert.Nil(t, pendingRetry(s, tenantID))
}

func TestFullSyncScheduler_StartStop(t *testing.T) {
	tenantID := uuid.New()
	tenants := &mockTenantProvider{}
	tenants.On("GetAllActiveTenantIDs", mock.Anything).Return([]uuid.UUID{tenantID}, nil)

	var ran atomic.Int32
	runner := &countingRunner{ran: &ran}

	cfg := testConfig()
	cfg.Interval = 10 * time.Millisecond
	s, err := NewFullSyncScheduler(cfg, tenants, runner, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(ctx), ErrSchedulerAlreadyRunning)

	assert.Eventually(t, func() bool { return ran.Load() >= 2 }, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(stopCtx), ErrSchedulerNotRunning)
}

func TestFullSyncScheduler_GetJobHistoryByTenantLimit(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	tenants := &mockTenantProvider{}
	tenants.On("GetAllActiveTenantIDs", mock.Anything).Return([]uuid.UUID{a, b}, nil)
	s, _ := newTestScheduler(t, tenants, newScriptedRunner())

	s.RunAll(context.Background())
	s.RunAll(context.Background())

	tests := []struct {
		limit int
		want  int
	}{
		{limit: -1, want: 2},
		{limit: 0, want: 2},
		{limit: 1, want: 1},
		{limit: 5, want: 2},
	}
	for _, tt := range tests {
		history := s.GetJobHistoryByTenant(a, tt.limit)
		assert.Len(t, history, tt.want, "limit %d", tt.limit)
		for _, job := range history {
			assert.Equal(t, a, job.TenantID)
		}
	}
	assert.Empty(t, s.GetJobHistoryByTenant(uuid.New(), 0))
}

type countingRunner struct {
	ran *atomic.Int32
}

func (r *countingRunner) Run(ctx context.Context, tenantID uuid.UUID, _ []string, _ int) (*erpsync.BatchReport, error) {
	r.ran.Add(1)
	return &erpsync.BatchReport{TenantID: tenantID}, nil
}

func TestFullSyncScheduler_RunTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.RunTimeout = 20 * time.Millisecond
	runner := &blockingRunner{}
	s, err := NewFullSyncScheduler(cfg, &mockTenantProvider{}, runner, nil)
	require.NoError(t, err)

	job := s.RunNow(context.Background(), uuid.New())

	assert.Equal(t, FullSyncJobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "deadline exceeded")
}

type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context, _ uuid.UUID, _ []string, _ int) (*erpsync.BatchReport, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
