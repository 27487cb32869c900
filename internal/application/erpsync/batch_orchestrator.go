package erpsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/telemetry"
)

// DefaultBatchSize is the page size used when the caller gives none
const DefaultBatchSize = 100

// OrchestratorConfig holds the defaults for full synchronization runs
type OrchestratorConfig struct {
	DefaultBatchSize int
	DefaultKinds     []string
	Mapping          MappingDefaults
}

// DefaultOrchestratorConfig returns the default run settings
func DefaultOrchestratorConfig() OrchestratorConfig {
	kinds := make([]string, 0, len(erpsync.DefaultEntityKinds))
	for _, k := range erpsync.DefaultEntityKinds {
		kinds = append(kinds, k.String())
	}
	return OrchestratorConfig{
		DefaultBatchSize: DefaultBatchSize,
		DefaultKinds:     kinds,
		Mapping:          DefaultMappingDefaults(),
	}
}

// BatchSyncOrchestrator runs a full synchronization pass for one tenant.
// Kinds are processed sequentially in caller order and a failing kind never
// stops the ones after it.
type BatchSyncOrchestrator struct {
	configs erpsync.ERPConfigProvider
	factory erpsync.ConnectorFactory
	source  erpsync.RecordSource
	syncer  *EntitySyncService
	config  OrchestratorConfig
	logger  *zap.Logger
}

// NewBatchSyncOrchestrator creates a new BatchSyncOrchestrator
func NewBatchSyncOrchestrator(
	configs erpsync.ERPConfigProvider,
	factory erpsync.ConnectorFactory,
	source erpsync.RecordSource,
	syncer *EntitySyncService,
	config OrchestratorConfig,
	logger *zap.Logger,
) *BatchSyncOrchestrator {
	if config.DefaultBatchSize <= 0 {
		config.DefaultBatchSize = DefaultBatchSize
	}
	if len(config.DefaultKinds) == 0 {
		config.DefaultKinds = DefaultOrchestratorConfig().DefaultKinds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchSyncOrchestrator{
		configs: configs,
		factory: factory,
		source:  source,
		syncer:  syncer,
		config:  config,
		logger:  logger,
	}
}

// RunFullSync synchronizes the named kinds for a tenant.
// Only configuration and connector construction failures are returned as
// errors; kind-level failures are recorded in the report.
func (o *BatchSyncOrchestrator) RunFullSync(
	ctx context.Context,
	tenantID uuid.UUID,
	kindNames []string,
	batchSize int,
) (*erpsync.BatchReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "erpsync", "run_full_sync",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
	)
	defer span.End()

	if batchSize <= 0 {
		batchSize = o.config.DefaultBatchSize
	}
	if len(kindNames) == 0 {
		kindNames = o.config.DefaultKinds
	}

	cfg, err := loadEnabledConfig(ctx, o.configs, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	conn, err := o.factory.Connect(ctx, cfg)
	if err != nil {
		telemetry.RecordError(span, err)
		o.logger.Error("ERP connector construction failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	registry := NewRegistry(o.config.Mapping.WithTenant(cfg))
	report := &erpsync.BatchReport{
		TenantID:  tenantID,
		StartedAt: time.Now(),
		Kinds:     make([]erpsync.KindReport, 0, len(kindNames)),
	}

	o.logger.Info("Full sync started",
		zap.String("tenant_id", tenantID.String()),
		zap.Strings("entity_kinds", kindNames),
		zap.Int("batch_size", batchSize),
	)

	for _, name := range kindNames {
		report.Kinds = append(report.Kinds, o.syncKind(ctx, conn, registry, name, batchSize))
	}
	report.FinishedAt = time.Now()

	created, exists, failed := report.Totals()
	telemetry.SetAttributes(span, "erp.created", created, "erp.exists", exists, "erp.failed", failed)
	o.logger.Info("Full sync finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("created", created),
		zap.Int("exists", exists),
		zap.Int("failed", failed),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// syncKind processes one kind page by page. Any failure, including a panic,
// is contained in the returned report.
func (o *BatchSyncOrchestrator) syncKind(
	ctx context.Context,
	conn erpsync.Connector,
	registry *Registry,
	name string,
	batchSize int,
) (report erpsync.KindReport) {
	report.Kind = name
	log := o.logger.With(
		zap.String("tenant_id", conn.TenantID().String()),
		zap.String("entity_kind", name),
	)

	defer func() {
		if r := recover(); r != nil {
			report.Error = fmt.Sprintf("panic: %v", r)
			log.Error("Entity kind sync panicked", zap.Any("panic", r))
		}
	}()

	binding, err := registry.Lookup(name)
	if err != nil {
		report.Error = err.Error()
		log.Error("Entity kind sync failed", zap.Error(err))
		return report
	}
	report.Kind = binding.Kind.String()
	report.DocumentType = binding.DocumentType
	log = log.With(zap.String("document_type", binding.DocumentType))

	ctx, span := telemetry.StartServiceSpan(ctx, "erpsync", "sync_kind",
		telemetry.WithAttribute(telemetry.SpanAttrEntityKind, binding.Kind.String()),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentType, binding.DocumentType),
	)
	defer span.End()

	for offset := 0; ; {
		if err := ctx.Err(); err != nil {
			report.Error = err.Error()
			log.Error("Entity kind sync interrupted", zap.Error(err))
			return report
		}

		page, err := o.source.LoadPage(ctx, conn.TenantID(), binding.Kind, offset, batchSize)
		if err != nil {
			err = fmt.Errorf("load %s records at offset %d: %w", binding.Kind, offset, err)
			report.Error = err.Error()
			telemetry.RecordError(span, err)
			log.Error("Entity kind sync failed", zap.Error(err))
			return report
		}

		outcomes := o.syncer.SyncAll(ctx, conn, binding, page)
		report.Add(outcomes...)
		logOutcomes(log, outcomes)

		if len(page) < batchSize {
			break
		}
		offset += len(page)
	}

	log.Info("Entity kind synced",
		zap.Int("created", report.Created),
		zap.Int("exists", report.Exists),
		zap.Int("failed", report.Failed),
	)
	return report
}

func logOutcomes(log *zap.Logger, outcomes []erpsync.SyncOutcome) {
	for _, out := range outcomes {
		if out.Success {
			log.Info("Record synced",
				zap.String("item", out.Item),
				zap.String("action", out.Action.String()),
			)
			continue
		}
		log.Warn("Record sync failed",
			zap.String("item", out.Item),
			zap.String("action", out.Action.String()),
			zap.String("error", out.Error),
		)
	}
}

// loadEnabledConfig loads the tenant's configuration and rejects disabled ones
func loadEnabledConfig(ctx context.Context, configs erpsync.ERPConfigProvider, tenantID uuid.UUID) (*erpsync.ERPConfig, error) {
	cfg, err := configs.GetERPConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, erpsync.ErrConfigNotFound
	}
	if !cfg.Enabled {
		return nil, erpsync.ErrConfigDisabled
	}
	return cfg, nil
}

// IsConfigError reports whether a run error came from the tenant's
// configuration rather than from the ERP itself.
func IsConfigError(err error) bool {
	return errors.Is(err, erpsync.ErrConfigNotFound) ||
		errors.Is(err, erpsync.ErrConfigDisabled) ||
		errors.Is(err, erpsync.ErrConfigInvalid)
}
