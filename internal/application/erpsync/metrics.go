package erpsync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Metrics receives synchronization measurements.
// telemetry.SyncMetrics implements it.
type Metrics interface {
	RecordOutcome(ctx context.Context, tenantID uuid.UUID, kind, action string)
	RecordRun(ctx context.Context, tenantID uuid.UUID, status string, d time.Duration)
	RecordLifecycleAction(ctx context.Context, tenantID uuid.UUID, action string, success bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordOutcome(context.Context, uuid.UUID, string, string)       {}
func (nopMetrics) RecordRun(context.Context, uuid.UUID, string, time.Duration)    {}
func (nopMetrics) RecordLifecycleAction(context.Context, uuid.UUID, string, bool) {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
