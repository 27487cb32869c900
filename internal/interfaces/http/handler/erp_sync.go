package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/rahulmuralitechnology/cartzilla-sub003/internal/application/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/scheduler"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/dto"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/middleware"
)

// SyncRunner runs a lock-guarded full synchronization
type SyncRunner interface {
	Run(ctx context.Context, tenantID uuid.UUID, kindNames []string, batchSize int) (*erpsync.BatchReport, error)
}

// ConnectionTester runs the test-connection diagnostic
type ConnectionTester interface {
	Check(ctx context.Context, tenantID uuid.UUID) (*appsync.ConnectionDiagnostic, error)
}

// ConfigStore reads and writes tenant ERP configuration
type ConfigStore interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*erpsync.ERPConfig, error)
	Save(ctx context.Context, cfg *erpsync.ERPConfig) error
}

// OrderLifecycle drives ERP orders through their workflow
type OrderLifecycle interface {
	UpdateOrderStatus(ctx context.Context, tenantID uuid.UUID, orderID, status string) (erpsync.Document, error)
	CreatePayment(ctx context.Context, tenantID uuid.UUID, orderID, partyID string, details erpsync.PaymentDetails) (erpsync.Document, error)
}

// SyncJobs is the scheduler's per-tenant view of its attempts
type SyncJobs interface {
	RunNow(ctx context.Context, tenantID uuid.UUID) scheduler.FullSyncJob
	PendingRetry(tenantID uuid.UUID) (scheduler.FullSyncJob, bool)
	GetJobHistoryByTenant(tenantID uuid.UUID, limit int) []*scheduler.FullSyncJob
}

// ERPSyncHandler serves the /api/v1/erp routes. Every route acts on the
// tenant resolved by the auth middleware.
type ERPSyncHandler struct {
	BaseHandler
	runner    SyncRunner
	tester    ConnectionTester
	configs   ConfigStore
	lifecycle OrderLifecycle
	jobs      SyncJobs
	now       func() time.Time
}

// NewERPSyncHandler creates a new ERPSyncHandler
func NewERPSyncHandler(runner SyncRunner, tester ConnectionTester, configs ConfigStore, lifecycle OrderLifecycle) *ERPSyncHandler {
	return &ERPSyncHandler{
		runner:    runner,
		tester:    tester,
		configs:   configs,
		lifecycle: lifecycle,
		now:       time.Now,
	}
}

// WithSyncJobs enables the scheduler routes; without it they answer 503
func (h *ERPSyncHandler) WithSyncJobs(jobs SyncJobs) *ERPSyncHandler {
	h.jobs = jobs
	return h
}

// RunSync godoc
// @ID           runERPSync
// @Summary      Run a full ERP synchronization
// @Description  Reconcile the tenant's records with the ERP, kind by kind. Per-record and per-kind failures are reported in the body.
// @Tags         erp-sync
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when header tenancy is allowed)"
// @Param        request body SyncRequest false "Kinds and page size; empty means the defaults"
// @Success      200 {object} dto.Response{data=SyncRunResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Failure      504 {object} dto.Response
// @Security     BearerAuth
// @Router       /erp/sync [post]
func (h *ERPSyncHandler) RunSync(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !isEmptyBody(err) {
		middleware.HandleValidationError(c, err)
		return
	}
	h.run(c, tenantID, req.EntityKinds, req.BatchSize)
}

// RunKindSync godoc
// @ID           runERPKindSync
// @Summary      Synchronize one entity kind
// @Description  The kind is matched case-insensitively and may be plural (customers, categories).
// @Tags         erp-sync
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when header tenancy is allowed)"
// @Param        kind path string true "Entity kind" Enums(customer, address, category, product, order, payment)
// @Param        request body KindSyncRequest false "Page size"
// @Success      200 {object} dto.Response{data=SyncRunResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Failure      504 {object} dto.Response
// @Security     BearerAuth
// @Router       /erp/sync/{kind} [post]
func (h *ERPSyncHandler) RunKindSync(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	kind, ok := erpsync.ParseEntityKind(c.Param("kind"))
	if !ok {
		h.BadRequest(c, dto.ErrCodeUnknownKind, "unknown entity kind: "+c.Param("kind"))
		return
	}
	var req KindSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !isEmptyBody(err) {
		middleware.HandleValidationError(c, err)
		return
	}
	h.run(c, tenantID, []string{kind.String()}, req.BatchSize)
}

func (h *ERPSyncHandler) run(c *gin.Context, tenantID uuid.UUID, kinds []string, batchSize int) {
	start := h.now()
	report, err := h.runner.Run(c.Request.Context(), tenantID, kinds, batchSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	created, exists, failed := report.Totals()
	h.Success(c, SyncRunResponse{
		Status:     appsync.RunStatus(report, nil),
		Created:    created,
		Exists:     exists,
		Failed:     failed,
		DurationMS: h.now().Sub(start).Milliseconds(),
		Report:     report,
	})
}

// TestConnection godoc
// @ID           testERPConnection
// @Summary      Test the ERP connection
// @Description  Check the tenant's stored credentials against the ERP. ERP failures are reported in the diagnostic with a 200 status.
// @Tags         erp-sync
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when header tenancy is allowed)"
// @Success      200 {object} dto.Response{data=appsync.ConnectionDiagnostic}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /erp/connection/test [get]
func (h *ERPSyncHandler) TestConnection(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	diag, err := h.tester.Check(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, diag)
}

// GetConfig godoc
// @ID           getERPConfig
// @Summary      Get the ERP configuration
// @Description  Return the tenant's ERP configuration. The API secret is never returned.
// @Tags         erp-config
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when header tenancy is allowed)"
// @Success      200 {object} dto.Response{data=ConfigResponse}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /erp/config [get]
func (h *ERPSyncHandler) GetConfig(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	cfg, err := h.configs.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewConfigResponse(cfg))
}

// PutConfig godoc
// @ID           putERPConfig
// @Summary      Create or replace the ERP configuration
// @Description  The API secret is write-only and stored encrypted. An empty secret keeps the stored one.
// @Tags         erp-config
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when header tenancy is allowed)"
// @Param        request body ConfigRequest true "ERP configuration"
// @Success      200 {object} dto.Response{data=ConfigResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /erp/config [put]
func (h *ERPSyncHandler) PutConfig(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	cfg := req.ToDomain(tenantID)
	if err := h.configs.Save(c.Request.Context(), cfg); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewConfigResponse(cfg))
}

// UpdateOrderStatus godoc
// @ID           updateERPOrderStatus
// @Summary      Apply an order status change in the ERP
// @Description  A Draft sales order is submitted first; the mapped action needs a second call.
// @Tags         erp-orders
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when header tenancy is allowed)"
// @Param        id path string true "Internal order ID"
// @Param        request body OrderStatusRequest true "New internal status"
// @Success      200 {object} dto.Response{data=erpsync.Document}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Failure      504 {object} dto.Response
// @Security     BearerAuth
// @Router       /erp/orders/{id}/status [post]
func (h *ERPSyncHandler) UpdateOrderStatus(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	doc, err := h.lifecycle.UpdateOrderStatus(c.Request.Context(), tenantID, c.Param("id"), req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// CreatePayment godoc
// @ID           createERPPayment
// @Summary      Record a payment against an order
// @Description  Create a Payment Entry allocated in full to the order's sales order.
// @Tags         erp-orders
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when header tenancy is allowed)"
// @Param        id path string true "Internal order ID"
// @Param        request body PaymentRequest true "Payment details"
// @Success      201 {object} dto.Response{data=erpsync.Document}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Failure      504 {object} dto.Response
// @Security     BearerAuth
// @Router       /erp/orders/{id}/payments [post]
func (h *ERPSyncHandler) CreatePayment(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	details, err := req.ToDomain(h.now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	doc, err := h.lifecycle.CreatePayment(c.Request.Context(), tenantID, c.Param("id"), req.PartyID, details)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// ListSyncJobs godoc
// @ID           listERPSyncJobs
// @Summary      List scheduled sync attempts
// @Description  Return the tenant's recent scheduler attempts, newest first, and its pending retry if any.
// @Tags         erp-sync
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when header tenancy is allowed)"
// @Param        limit query int false "Maximum attempts" default(20) minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=SyncJobsResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Security     BearerAuth
// @Router       /erp/sync/jobs [get]
func (h *ERPSyncHandler) ListSyncJobs(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok || !h.requireJobs(c) {
		return
	}
	var q SyncJobsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultJobsLimit
	}

	resp := SyncJobsResponse{History: []SyncJobResponse{}}
	for _, job := range h.jobs.GetJobHistoryByTenant(tenantID, q.Limit) {
		resp.History = append(resp.History, NewSyncJobResponse(*job))
	}
	if job, ok := h.jobs.PendingRetry(tenantID); ok {
		pending := NewSyncJobResponse(job)
		resp.PendingRetry = &pending
	}
	h.Success(c, resp)
}

// RetrySync godoc
// @ID           retryERPSync
// @Summary      Run the scheduled sync now
// @Description  Run the tenant's scheduled full sync immediately, consuming a pending retry. A failed attempt is reported in the job with a 200 status and may be retried by the scheduler.
// @Tags         erp-sync
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when header tenancy is allowed)"
// @Success      200 {object} dto.Response{data=SyncJobResponse}
// @Failure      401 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Security     BearerAuth
// @Router       /erp/sync/retry [post]
func (h *ERPSyncHandler) RetrySync(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok || !h.requireJobs(c) {
		return
	}
	h.Success(c, NewSyncJobResponse(h.jobs.RunNow(c.Request.Context(), tenantID)))
}

func (h *ERPSyncHandler) requireJobs(c *gin.Context) bool {
	if h.jobs == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeSchedulerUnavailable, "sync scheduler is not configured")
		return false
	}
	return true
}

// isEmptyBody lets sync routes be called without a body
func isEmptyBody(err error) bool {
	return errors.Is(err, io.EOF)
}
