package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appsync "github.com/rahulmuralitechnology/cartzilla-sub003/internal/application/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/scheduler"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/dto"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/middleware"
)

type mockRunner struct{ mock.Mock }

func (m *mockRunner) Run(ctx context.Context, tenantID uuid.UUID, kinds []string, batchSize int) (*erpsync.BatchReport, error) {
	args := m.Called(ctx, tenantID, kinds, batchSize)
	report, _ := args.Get(0).(*erpsync.BatchReport)
	return report, args.Error(1)
}

type mockTester struct{ mock.Mock }

func (m *mockTester) Check(ctx context.Context, tenantID uuid.UUID) (*appsync.ConnectionDiagnostic, error) {
	args := m.Called(ctx, tenantID)
	diag, _ := args.Get(0).(*appsync.ConnectionDiagnostic)
	return diag, args.Error(1)
}

type mockConfigs struct{ mock.Mock }

func (m *mockConfigs) Get(ctx context.Context, tenantID uuid.UUID) (*erpsync.ERPConfig, error) {
	args := m.Called(ctx, tenantID)
	cfg, _ := args.Get(0).(*erpsync.ERPConfig)
	return cfg, args.Error(1)
}

func (m *mockConfigs) Save(ctx context.Context, cfg *erpsync.ERPConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

type mockLifecycle struct{ mock.Mock }

func (m *mockLifecycle) UpdateOrderStatus(ctx context.Context, tenantID uuid.UUID, orderID, status string) (erpsync.Document, error) {
	args := m.Called(ctx, tenantID, orderID, status)
	doc, _ := args.Get(0).(erpsync.Document)
	return doc, args.Error(1)
}

func (m *mockLifecycle) CreatePayment(ctx context.Context, tenantID uuid.UUID, orderID, partyID string, details erpsync.PaymentDetails) (erpsync.Document, error) {
	args := m.Called(ctx, tenantID, orderID, partyID, details)
	doc, _ := args.Get(0).(erpsync.Document)
	return doc, args.Error(1)
}

type mockJobs struct{ mock.Mock }

func (m *mockJobs) RunNow(ctx context.Context, tenantID uuid.UUID) scheduler.FullSyncJob {
	return m.Called(ctx, tenantID).Get(0).(scheduler.FullSyncJob)
}

func (m *mockJobs) PendingRetry(tenantID uuid.UUID) (scheduler.FullSyncJob, bool) {
	args := m.Called(tenantID)
	return args.Get(0).(scheduler.FullSyncJob), args.Bool(1)
}

func (m *mockJobs) GetJobHistoryByTenant(tenantID uuid.UUID, limit int) []*scheduler.FullSyncJob {
	jobs, _ := m.Called(tenantID, limit).Get(0).([]*scheduler.FullSyncJob)
	return jobs
}

type handlerFixture struct {
	tenantID  uuid.UUID
	runner    *mockRunner
	tester    *mockTester
	configs   *mockConfigs
	lifecycle *mockLifecycle
	jobs      *mockJobs
	handler   *ERPSyncHandler
	router    *gin.Engine
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.SetupValidator())

	f := &handlerFixture{
		tenantID:  uuid.New(),
		runner:    new(mockRunner),
		tester:    new(mockTester),
		configs:   new(mockConfigs),
		lifecycle: new(mockLifecycle),
		jobs:      new(mockJobs),
	}
	h := NewERPSyncHandler(f.runner, f.tester, f.configs, f.lifecycle).WithSyncJobs(f.jobs)
	f.handler = h
	h.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }

	f.router = gin.New()
	f.router.Use(middleware.RequestID())
	api := f.router.Group("/api/v1/erp", middleware.TenantAuth(middleware.AuthConfig{AllowTenantHeader: true}))
	api.POST("/sync", h.RunSync)
	api.POST("/sync/retry", h.RetrySync)
	api.POST("/sync/:kind", h.RunKindSync)
	api.GET("/sync/jobs", h.ListSyncJobs)
	api.GET("/connection/test", h.TestConnection)
	api.GET("/config", h.GetConfig)
	api.PUT("/config", h.PutConfig)
	api.POST("/orders/:id/status", h.UpdateOrderStatus)
	api.POST("/orders/:id/payments", h.CreatePayment)

	t.Cleanup(func() {
		f.runner.AssertExpectations(t)
		f.tester.AssertExpectations(t)
		f.configs.AssertExpectations(t)
		f.lifecycle.AssertExpectations(t)
		f.jobs.AssertExpectations(t)
	})
	return f
}

func (f *handlerFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.TenantHeader, f.tenantID.String())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func sampleReport(tenantID uuid.UUID) *erpsync.BatchReport {
	report := &erpsync.BatchReport{TenantID: tenantID}
	kr := erpsync.KindReport{Kind: "customer", DocumentType: erpsync.DocTypeCustomer}
	kr.Add(
		erpsync.Created("Jane Doe", erpsync.Document{"name": "CUST-0001"}),
		erpsync.Exists("John Roe"),
	)
	report.Kinds = append(report.Kinds, kr)
	return report
}

func TestRunSync(t *testing.T) {
	f := newFixture(t)
	f.runner.On("Run", mock.Anything, f.tenantID, []string{"customer", "order"}, 50).
		Return(sampleReport(f.tenantID), nil)

	w := f.do(http.MethodPost, "/api/v1/erp/sync", `{"entity_kinds":["customer","order"],"batch_size":50}`)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	var resp SyncRunResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, appsync.RunStatusCompleted, resp.Status)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 1, resp.Exists)
	assert.Len(t, resp.Report.Kinds, 1)
}

func TestRunSync_EmptyBodyUsesDefaults(t *testing.T) {
	f := newFixture(t)
	f.runner.On("Run", mock.Anything, f.tenantID, []string(nil), 0).
		Return(&erpsync.BatchReport{TenantID: f.tenantID}, nil)

	w := f.do(http.MethodPost, "/api/v1/erp/sync", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunSync_RejectsUnknownKind(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/erp/sync", `{"entity_kinds":["invoice"]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeEnvelope(t, w).Error.Code)
	f.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSync_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"in progress", erpsync.ErrSyncRunInProgress, http.StatusConflict, dto.ErrCodeSyncInProgress},
		{"erp auth", erpsync.NewAuthError(401, "Invalid API key"), http.StatusBadGateway, dto.ErrCodeERPAuth},
		{"erp down", erpsync.NewConnectionError(0, "connection refused", errors.New("dial tcp")), http.StatusGatewayTimeout, dto.ErrCodeERPConnection},
		{"no config", erpsync.ErrConfigNotFound, http.StatusNotFound, dto.ErrCodeConfigNotFound},
		{"disabled", erpsync.ErrConfigDisabled, http.StatusUnprocessableEntity, dto.ErrCodeConfigDisabled},
		{"internal", errors.New("pq: relation missing"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.runner.On("Run", mock.Anything, f.tenantID, mock.Anything, mock.Anything).Return(nil, tt.err)

			w := f.do(http.MethodPost, "/api/v1/erp/sync", `{}`)
			require.Equal(t, tt.status, w.Code)
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.NotEmpty(t, env.Error.RequestID)
			assert.NotContains(t, env.Error.Message, "pq:")
		})
	}
}

func TestRunKindSync(t *testing.T) {
	f := newFixture(t)
	f.runner.On("Run", mock.Anything, f.tenantID, []string{"product"}, 25).
		Return(&erpsync.BatchReport{TenantID: f.tenantID}, nil)

	w := f.do(http.MethodPost, "/api/v1/erp/sync/product", `{"batch_size":25}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, "/api/v1/erp/sync/invoice", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeUnknownKind, decodeEnvelope(t, w).Error.Code)
}

func TestRunKindSync_KindNameForms(t *testing.T) {
	tests := []struct {
		path string
		kind string
	}{
		{"Customers", "customer"},
		{"PRODUCT", "product"},
		{"categories", "category"},
		{"addresses", "address"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := newFixture(t)
			f.runner.On("Run", mock.Anything, f.tenantID, []string{tt.kind}, 0).
				Return(&erpsync.BatchReport{TenantID: f.tenantID}, nil)

			w := f.do(http.MethodPost, "/api/v1/erp/sync/"+tt.path, "")
			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		})
	}
}

func TestListSyncJobs(t *testing.T) {
	f := newFixture(t)
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	finished := started.Add(2 * time.Minute)
	retryAt := finished.Add(time.Minute)

	done := scheduler.NewFullSyncJob(f.tenantID, 3)
	done.Start(started)
	done.Finish(&erpsync.BatchReport{TenantID: f.tenantID}, finished)
	pending := scheduler.NewFullSyncJob(f.tenantID, 3)
	pending.RetryCount = 1
	pending.NextRetryAt = &retryAt

	f.jobs.On("GetJobHistoryByTenant", f.tenantID, 5).Return([]*scheduler.FullSyncJob{done})
	f.jobs.On("PendingRetry", f.tenantID).Return(*pending, true)

	w := f.do(http.MethodGet, "/api/v1/erp/sync/jobs?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SyncJobsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	require.Len(t, resp.History, 1)
	assert.Equal(t, done.ID.String(), resp.History[0].ID)
	assert.Equal(t, string(done.Status), resp.History[0].Status)
	require.NotNil(t, resp.History[0].CompletedAt)
	assert.True(t, finished.Equal(*resp.History[0].CompletedAt))
	require.NotNil(t, resp.PendingRetry)
	assert.Equal(t, 1, resp.PendingRetry.RetryCount)
	require.NotNil(t, resp.PendingRetry.NextRetryAt)
	assert.True(t, retryAt.Equal(*resp.PendingRetry.NextRetryAt))
}

func TestListSyncJobs_DefaultLimit(t *testing.T) {
	f := newFixture(t)
	f.jobs.On("GetJobHistoryByTenant", f.tenantID, defaultJobsLimit).Return(nil)
	f.jobs.On("PendingRetry", f.tenantID).Return(scheduler.FullSyncJob{}, false)

	w := f.do(http.MethodGet, "/api/v1/erp/sync/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SyncJobsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.NotNil(t, resp.History)
	assert.Empty(t, resp.History)
	assert.Nil(t, resp.PendingRetry)
}

func TestListSyncJobs_RejectsBadLimit(t *testing.T) {
	for _, limit := range []string{"-1", "101", "abc"} {
		t.Run(limit, func(t *testing.T) {
			f := newFixture(t)

			w := f.do(http.MethodGet, "/api/v1/erp/sync/jobs?limit="+limit, "")
			require.Equal(t, http.StatusBadRequest, w.Code)
			f.jobs.AssertNotCalled(t, "GetJobHistoryByTenant", mock.Anything, mock.Anything)
		})
	}
}

func TestRetrySync(t *testing.T) {
	f := newFixture(t)
	job := scheduler.NewFullSyncJob(f.tenantID, 3)
	job.Start(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	job.Finish(&erpsync.BatchReport{TenantID: f.tenantID}, time.Date(2026, 3, 2, 9, 1, 0, 0, time.UTC))
	f.jobs.On("RunNow", mock.Anything, f.tenantID).Return(*job)

	w := f.do(http.MethodPost, "/api/v1/erp/sync/retry", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SyncJobResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.Equal(t, job.ID.String(), resp.ID)
	assert.Equal(t, f.tenantID.String(), resp.TenantID)
	assert.NotNil(t, resp.Report)
	f.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncJobs_WithoutScheduler(t *testing.T) {
	f := newFixture(t)
	f.handler.jobs = nil

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/erp/sync/jobs"},
		{http.MethodPost, "/api/v1/erp/sync/retry"},
	} {
		w := f.do(tc.method, tc.path, "")
		require.Equal(t, http.StatusServiceUnavailable, w.Code, tc.path)
		assert.Equal(t, dto.ErrCodeSchedulerUnavailable, decodeEnvelope(t, w).Error.Code)
	}
}

func TestTestConnection(t *testing.T) {
	f := newFixture(t)
	f.tester.On("Check", mock.Anything, f.tenantID).Return(&appsync.ConnectionDiagnostic{
		Status:     appsync.DiagnosticAuthFailed,
		Message:    "authentication failed: check API key and secret",
		StatusCode: 401,
	}, nil)

	w := f.do(http.MethodGet, "/api/v1/erp/connection/test", "")
	require.Equal(t, http.StatusOK, w.Code)

	var diag appsync.ConnectionDiagnostic
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &diag))
	assert.Equal(t, appsync.DiagnosticAuthFailed, diag.Status)
	assert.Equal(t, 401, diag.StatusCode)
}

func TestTestConnection_NoConfig(t *testing.T) {
	f := newFixture(t)
	f.tester.On("Check", mock.Anything, f.tenantID).Return(nil, erpsync.ErrConfigNotFound)

	w := f.do(http.MethodGet, "/api/v1/erp/connection/test", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfig_GetOmitsSecret(t *testing.T) {
	f := newFixture(t)
	f.configs.On("Get", mock.Anything, f.tenantID).Return(&erpsync.ERPConfig{
		TenantID: f.tenantID,
		BaseURL:  "https://erp.example.com",
		APIKey:   "key",
		Enabled:  true,
	}, nil)

	w := f.do(http.MethodGet, "/api/v1/erp/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "api_secret")

	var cfg ConfigResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &cfg))
	assert.Equal(t, "https://erp.example.com", cfg.BaseURL)
	assert.True(t, cfg.Enabled)
}

func TestConfig_Put(t *testing.T) {
	f := newFixture(t)
	f.configs.On("Save", mock.Anything, mock.MatchedBy(func(cfg *erpsync.ERPConfig) bool {
		return cfg.TenantID == f.tenantID &&
			cfg.APISecret == "s3cret" &&
			cfg.Company == "Cartzilla Ltd" &&
			cfg.Enabled
	})).Return(nil)

	w := f.do(http.MethodPut, "/api/v1/erp/config",
		`{"base_url":"https://erp.example.com","api_key":"key","api_secret":"s3cret","company":"Cartzilla Ltd"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "s3cret")
}

func TestConfig_PutValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPut, "/api/v1/erp/config", `{"base_url":"not a url"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	fields := map[string]bool{}
	for _, d := range env.Error.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["base_url"])
	assert.True(t, fields["api_key"])
}

func TestConfig_PutInvalidFromService(t *testing.T) {
	f := newFixture(t)
	f.configs.On("Save", mock.Anything, mock.Anything).
		Return(errors.Join(erpsync.ErrConfigInvalid, errors.New("API secret is required")))

	w := f.do(http.MethodPut, "/api/v1/erp/config", `{"base_url":"https://erp.example.com","api_key":"key"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeConfigInvalid, decodeEnvelope(t, w).Error.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	f.lifecycle.On("UpdateOrderStatus", mock.Anything, f.tenantID, "ord-1", "Completed").
		Return(erpsync.Document{"name": "SO-0001", "status": "Completed"}, nil)

	w := f.do(http.MethodPost, "/api/v1/erp/orders/ord-1/status", `{"status":"Completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SO-0001")

	w = f.do(http.MethodPost, "/api/v1/erp/orders/ord-1/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	f := newFixture(t)
	f.lifecycle.On("UpdateOrderStatus", mock.Anything, f.tenantID, "ord-9", "Cancelled").
		Return(nil, erpsync.NewNotFoundError("Sales Order for ord-9 not found"))

	w := f.do(http.MethodPost, "/api/v1/erp/orders/ord-9/status", `{"status":"Cancelled"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, dto.ErrCodeERPNotFound, env.Error.Code)
	assert.Equal(t, "Sales Order for ord-9 not found", env.Error.Message)
}

func TestCreatePayment(t *testing.T) {
	f := newFixture(t)
	f.lifecycle.On("CreatePayment", mock.Anything, f.tenantID, "ord-1", "CUST-0001",
		mock.MatchedBy(func(d erpsync.PaymentDetails) bool {
			return d.PaymentID == "pay-1" &&
				d.Amount.Equal(decimal.RequireFromString("149.90")) &&
				d.Currency == "EUR" &&
				d.ReferenceDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				d.PostingDate.Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
		})).
		Return(erpsync.Document{"name": "ACC-PAY-0001"}, nil)

	w := f.do(http.MethodPost, "/api/v1/erp/orders/ord-1/payments",
		`{"party_id":"CUST-0001","payment_id":"pay-1","amount":"149.90","currency":"EUR","reference_no":"TX-1","reference_date":"2026-03-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "ACC-PAY-0001")
}

func TestCreatePayment_Rejects(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/erp/orders/ord-1/payments", `{"amount":10,"currency":"EURO"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/v1/erp/orders/ord-1/payments", `{"amount":10,"currency":"EUR","posting_date":"02/03/2026"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.lifecycle.On("CreatePayment", mock.Anything, f.tenantID, "ord-1", "", mock.Anything).
		Return(nil, &erpsync.Error{Kind: erpsync.ErrorKindValidation, Message: "amount must be positive", Err: erpsync.ErrInvalidPayment})
	w = f.do(http.MethodPost, "/api/v1/erp/orders/ord-1/payments", `{"amount":0,"currency":"EUR"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidPayment, decodeEnvelope(t, w).Error.Code)
}

func TestRoutes_RequireTenant(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/erp/config", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
