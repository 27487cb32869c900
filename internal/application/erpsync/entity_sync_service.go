package erpsync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/telemetry"
)

// EntitySyncService reconciles internal records with ERP documents.
// Reconciliation is create-only: a document found by external ID is never modified.
type EntitySyncService struct {
	links   erpsync.DocumentLinkRepository
	metrics Metrics
	logger  *zap.Logger
}

// EntitySyncOption configures an EntitySyncService
type EntitySyncOption func(*EntitySyncService)

// WithDocumentLinks records the native name of every synchronized record
func WithDocumentLinks(links erpsync.DocumentLinkRepository) EntitySyncOption {
	return func(s *EntitySyncService) {
		s.links = links
	}
}

// WithSyncMetrics counts reconciliation outcomes
func WithSyncMetrics(m Metrics) EntitySyncOption {
	return func(s *EntitySyncService) {
		s.metrics = m
	}
}

// NewEntitySyncService creates a new EntitySyncService
func NewEntitySyncService(logger *zap.Logger, opts ...EntitySyncOption) *EntitySyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EntitySyncService{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = metricsOrNop(s.metrics)
	return s
}

// SyncAll reconciles records in input order and returns exactly one outcome per record.
// A failure on one record never stops the others. Once ctx is done, every
// remaining record fails with the context error.
func (s *EntitySyncService) SyncAll(
	ctx context.Context,
	conn erpsync.Connector,
	binding Binding,
	records []erpsync.Record,
) []erpsync.SyncOutcome {
	ctx, span := telemetry.StartServiceSpan(ctx, "entity_sync", "sync_all",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, conn.TenantID().String()),
		telemetry.WithAttribute(telemetry.SpanAttrEntityKind, binding.Kind.String()),
		telemetry.WithAttribute(telemetry.SpanAttrRecordCount, len(records)),
	)
	defer span.End()

	outcomes := make([]erpsync.SyncOutcome, 0, len(records))
	for _, rec := range records {
		var outcome erpsync.SyncOutcome
		if err := ctx.Err(); err != nil {
			outcome = erpsync.Failed(describe(rec), err)
		} else {
			outcome = s.syncOne(ctx, conn, binding, rec)
		}
		s.metrics.RecordOutcome(ctx, conn.TenantID(), binding.Kind.String(), outcome.Action.String())
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// syncOne reconciles a single record. Panics from mapping or the connector
// are converted into a failed outcome.
func (s *EntitySyncService) syncOne(
	ctx context.Context,
	conn erpsync.Connector,
	binding Binding,
	rec erpsync.Record,
) (outcome erpsync.SyncOutcome) {
	item := describe(rec)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered panic while syncing record",
				zap.String("entity_kind", binding.Kind.String()),
				zap.String("item", item),
				zap.Any("panic", r),
			)
			outcome = erpsync.Failed(item, fmt.Errorf("panic: %v", r))
		}
	}()

	externalID := rec.ExternalID()
	existing, err := conn.FindByExternalID(ctx, binding.DocumentType, externalID)
	if err != nil {
		return erpsync.Failed(item, err)
	}
	if existing != nil {
		s.saveLink(ctx, conn.TenantID(), binding, externalID, existing.NativeName())
		return erpsync.Exists(item)
	}

	payload, err := binding.Map(rec)
	if err != nil {
		return erpsync.Failed(item, err)
	}
	created, err := conn.Create(ctx, binding.DocumentType, payload)
	if err != nil {
		return erpsync.Failed(item, err)
	}

	trace.SpanFromContext(ctx).AddEvent("document_created")
	s.saveLink(ctx, conn.TenantID(), binding, externalID, created.Name)
	return erpsync.Created(item, created.Raw)
}

// saveLink stores the native name. Failures are logged and never change the outcome.
func (s *EntitySyncService) saveLink(ctx context.Context, tenantID uuid.UUID, binding Binding, externalID, nativeName string) {
	if s.links == nil || nativeName == "" {
		return
	}
	link := &erpsync.DocumentLink{
		TenantID:     tenantID,
		Kind:         binding.Kind,
		ExternalID:   externalID,
		DocumentType: binding.DocumentType,
		NativeName:   nativeName,
		CreatedAt:    time.Now(),
	}
	if err := s.links.Save(ctx, link); err != nil {
		s.logger.Warn("Failed to store ERP document link",
			zap.String("tenant_id", tenantID.String()),
			zap.String("entity_kind", binding.Kind.String()),
			zap.String("external_id", externalID),
			zap.String("native_name", nativeName),
			zap.Error(err),
		)
	}
}

// describe labels a record for its outcome, tolerating broken records
func describe(rec erpsync.Record) (item string) {
	defer func() {
		if r := recover(); r != nil {
			item = fmt.Sprintf("%T", rec)
		}
	}()
	if rec == nil {
		return "<nil record>"
	}
	return rec.Describe()
}
