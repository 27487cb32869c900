package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics records ERP synchronization metrics.
// It tracks per-record outcomes, full-sync runs, lifecycle actions and ERP call latency.
type SyncMetrics struct {
	outcomesTotal   *Counter
	runsTotal       *Counter
	runDuration     *Histogram
	lifecycleTotal  *Counter
	requestDuration *Histogram
	requestErrors   *Counter
}

// ERPRequestBuckets are bucket boundaries for ERP call duration (seconds).
// The upper bound matches the default request timeout.
var ERPRequestBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// SyncRunBuckets are bucket boundaries for full-sync run duration (seconds).
var SyncRunBuckets = []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600}

// NewSyncMetrics creates the synchronization instruments on the given meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	sm := &SyncMetrics{}
	var err error

	sm.outcomesTotal, err = NewCounter(meter,
		"erp_sync_outcomes_total",
		"Total number of record reconciliation outcomes",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	sm.runsTotal, err = NewCounter(meter,
		"erp_sync_runs_total",
		"Total number of full synchronization runs",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "erp_sync_run_duration_seconds",
		Description: "Duration of full synchronization runs",
		Unit:        "s",
		Boundaries:  SyncRunBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.lifecycleTotal, err = NewCounter(meter,
		"erp_order_lifecycle_actions_total",
		"Total number of order lifecycle actions issued to the ERP",
		"{actions}",
	)
	if err != nil {
		return nil, err
	}

	sm.requestDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "erp_request_duration_seconds",
		Description: "Duration of ERP REST calls",
		Unit:        "s",
		Boundaries:  ERPRequestBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.requestErrors, err = NewCounter(meter,
		"erp_request_errors_total",
		"Total number of ERP REST calls that failed",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordOutcome records one reconciliation outcome.
func (sm *SyncMetrics) RecordOutcome(ctx context.Context, tenantID uuid.UUID, kind, action string) {
	sm.outcomesTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrEntityKind.String(kind),
		AttrSyncAction.String(action),
	)
}

// RecordRun records a finished full-sync run with its final status.
func (sm *SyncMetrics) RecordRun(ctx context.Context, tenantID uuid.UUID, status string, d time.Duration) {
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrRunStatus.String(status),
	}
	sm.runsTotal.Inc(ctx, attrs...)
	sm.runDuration.RecordDuration(ctx, d, attrs...)
}

// RecordLifecycleAction records an order lifecycle action sent to the ERP.
func (sm *SyncMetrics) RecordLifecycleAction(ctx context.Context, tenantID uuid.UUID, action string, success bool) {
	sm.lifecycleTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrERPAction.String(action),
		AttrSuccess.Bool(success),
	)
}

// RecordERPRequest records the duration of one ERP call.
// A status code of 0 means the call never got a response.
func (sm *SyncMetrics) RecordERPRequest(ctx context.Context, operation, docType string, statusCode int, d time.Duration) {
	attrs := []attribute.KeyValue{
		AttrERPOperation.String(operation),
		AttrDocumentType.String(docType),
		AttrHTTPStatusCode.String(strconv.Itoa(statusCode)),
	}
	sm.requestDuration.RecordDuration(ctx, d, attrs...)
	if statusCode == 0 || statusCode >= 400 {
		sm.requestErrors.Inc(ctx, attrs...)
	}
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
