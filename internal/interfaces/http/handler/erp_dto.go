package handler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/scheduler"
)

const (
	dateLayout       = "2006-01-02"
	defaultJobsLimit = 20
)

// SyncRequest starts a full synchronization run
type SyncRequest struct {
	// EntityKinds defaults to every kind in dependency order
	EntityKinds []string `json:"entity_kinds" binding:"omitempty,max=6,dive,entity_kind" example:"customer,product"`
	BatchSize   int      `json:"batch_size" binding:"omitempty,min=1,max=1000" example:"100"`
}

// KindSyncRequest starts a run for the kind named in the path
type KindSyncRequest struct {
	BatchSize int `json:"batch_size" binding:"omitempty,min=1,max=1000" example:"100"`
}

// SyncRunResponse summarizes a run
type SyncRunResponse struct {
	Status     string               `json:"status" example:"partial" enums:"completed,partial,failed"`
	Created    int                  `json:"created" example:"12"`
	Exists     int                  `json:"exists" example:"40"`
	Failed     int                  `json:"failed" example:"1"`
	DurationMS int64                `json:"duration_ms" example:"5230"`
	Report     *erpsync.BatchReport `json:"report"`
}

// ConfigRequest creates or replaces the tenant's ERP configuration.
// An empty api_secret keeps the stored secret.
type ConfigRequest struct {
	BaseURL              string `json:"base_url" binding:"required,url,max=512" example:"https://erp.example.com"`
	APIKey               string `json:"api_key" binding:"required,max=255" example:"3f2a9c1b7e"`
	APISecret            string `json:"api_secret" binding:"omitempty,max=255" example:"s3cr3t"`
	DefaultCustomerGroup string `json:"default_customer_group" binding:"max=140" example:"Individual"`
	DefaultTerritory     string `json:"default_territory" binding:"max=140" example:"India"`
	Company              string `json:"company" binding:"max=140" example:"Cartzilla Retail"`
	DefaultWarehouse     string `json:"default_warehouse" binding:"max=140" example:"Stores - CR"`
	Enabled              *bool  `json:"enabled" example:"true"`
}

// ToDomain builds the tenant's configuration; enabled defaults to true
func (r *ConfigRequest) ToDomain(tenantID uuid.UUID) *erpsync.ERPConfig {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return &erpsync.ERPConfig{
		TenantID:             tenantID,
		BaseURL:              r.BaseURL,
		APIKey:               r.APIKey,
		APISecret:            r.APISecret,
		DefaultCustomerGroup: r.DefaultCustomerGroup,
		DefaultTerritory:     r.DefaultTerritory,
		Company:              r.Company,
		DefaultWarehouse:     r.DefaultWarehouse,
		Enabled:              enabled,
	}
}

// ConfigResponse is the stored configuration without its secret
type ConfigResponse struct {
	TenantID             string `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	BaseURL              string `json:"base_url" example:"https://erp.example.com"`
	APIKey               string `json:"api_key" example:"3f2a9c1b7e"`
	DefaultCustomerGroup string `json:"default_customer_group,omitempty" example:"Individual"`
	DefaultTerritory     string `json:"default_territory,omitempty" example:"India"`
	Company              string `json:"company,omitempty" example:"Cartzilla Retail"`
	DefaultWarehouse     string `json:"default_warehouse,omitempty" example:"Stores - CR"`
	Enabled              bool   `json:"enabled" example:"true"`
}

// NewConfigResponse converts a configuration for output
func NewConfigResponse(cfg *erpsync.ERPConfig) ConfigResponse {
	return ConfigResponse{
		TenantID:             cfg.TenantID.String(),
		BaseURL:              cfg.BaseURL,
		APIKey:               cfg.APIKey,
		DefaultCustomerGroup: cfg.DefaultCustomerGroup,
		DefaultTerritory:     cfg.DefaultTerritory,
		Company:              cfg.Company,
		DefaultWarehouse:     cfg.DefaultWarehouse,
		Enabled:              cfg.Enabled,
	}
}

// OrderStatusRequest carries the order's new internal status
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required,max=64" example:"shipped"`
}

// PaymentRequest records a payment against an order
type PaymentRequest struct {
	PartyID       string          `json:"party_id" binding:"max=140" example:"CUST-00042"`
	PaymentID     string          `json:"payment_id" binding:"max=140" example:"pay_29QQoUBi66xm2f"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"1499.00"`
	Currency      string          `json:"currency" binding:"required,len=3" example:"INR"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate" swaggertype:"string" example:"1"`
	ModeOfPayment string          `json:"mode_of_payment" binding:"max=140" example:"Razorpay"`
	ReferenceNo   string          `json:"reference_no" binding:"max=140" example:"pay_29QQoUBi66xm2f"`
	ReferenceDate string          `json:"reference_date" binding:"omitempty,datetime=2006-01-02" example:"2026-10-01"`
	PostingDate   string          `json:"posting_date" binding:"omitempty,datetime=2006-01-02" example:"2026-10-01"`
}

// ToDomain converts the request; posting date defaults to today
func (r *PaymentRequest) ToDomain(now time.Time) (erpsync.PaymentDetails, error) {
	details := erpsync.PaymentDetails{
		PaymentID:     r.PaymentID,
		Amount:        r.Amount,
		Currency:      r.Currency,
		ExchangeRate:  r.ExchangeRate,
		ModeOfPayment: r.ModeOfPayment,
		ReferenceNo:   r.ReferenceNo,
		PostingDate:   now,
	}
	if r.ReferenceDate != "" {
		t, err := time.Parse(dateLayout, r.ReferenceDate)
		if err != nil {
			return details, fmt.Errorf("%w: reference_date: %v", erpsync.ErrInvalidPayment, err)
		}
		details.ReferenceDate = t
	}
	if r.PostingDate != "" {
		t, err := time.Parse(dateLayout, r.PostingDate)
		if err != nil {
			return details, fmt.Errorf("%w: posting_date: %v", erpsync.ErrInvalidPayment, err)
		}
		details.PostingDate = t
	}
	return details, nil
}

// SyncJobsQuery pages the scheduler history
type SyncJobsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100" example:"20"`
}

// SyncJobResponse is one scheduler attempt
type SyncJobResponse struct {
	ID          string               `json:"id" example:"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`
	TenantID    string               `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status      string               `json:"status" example:"COMPLETED" enums:"PENDING,RUNNING,COMPLETED,PARTIAL,FAILED"`
	Error       string               `json:"error,omitempty" example:"erp connection failed"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	NextRetryAt *time.Time           `json:"next_retry_at,omitempty"`
	RetryCount  int                  `json:"retry_count" example:"0"`
	MaxRetries  int                  `json:"max_retries" example:"3"`
	Report      *erpsync.BatchReport `json:"report,omitempty"`
}

// NewSyncJobResponse converts a scheduler job for output
func NewSyncJobResponse(job scheduler.FullSyncJob) SyncJobResponse {
	return SyncJobResponse{
		ID:          job.ID.String(),
		TenantID:    job.TenantID.String(),
		Status:      string(job.Status),
		Error:       job.Error,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		NextRetryAt: job.NextRetryAt,
		RetryCount:  job.RetryCount,
		MaxRetries:  job.MaxRetries,
		Report:      job.Report,
	}
}

// SyncJobsResponse lists recent attempts, newest first
type SyncJobsResponse struct {
	PendingRetry *SyncJobResponse  `json:"pending_retry,omitempty"`
	History      []SyncJobResponse `json:"history"`
}
