// Package bootstrap wires the synchronization engine from configuration.
// Both the API server and the one-shot CLI build the same core through it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	appsync "github.com/rahulmuralitechnology/cartzilla-sub003/internal/application/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/cache"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/config"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/erp"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/logger"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/persistence"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/secret"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/telemetry"
)

// Telemetry groups the OpenTelemetry providers so they can be shut down together
type Telemetry struct {
	Tracer   *telemetry.TracerProvider
	Meter    *telemetry.MeterProvider
	Logs     *telemetry.LoggerProvider
	Profiler *telemetry.Profiler
}

// NewLogger builds the service logger. When OTEL log export is enabled the
// console core is teed with the OTEL bridge.
func NewLogger(ctx context.Context, cfg *config.Config) (*zap.Logger, *telemetry.LoggerProvider, error) {
	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	}
	base, err := logger.NewCore(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	log := zap.New(base, logger.Options()...)

	if !cfg.Telemetry.LogsEnabled {
		return log, nil, nil
	}

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           true,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("init OTEL logs: %w", err)
	}
	otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		LoggerProvider: lp,
		Level:          logger.ParseLevel(cfg.Log.Level),
	})
	return telemetry.NewBridgedLogger(base, otelCore, logger.Options()...), lp, nil
}

// NewTelemetry starts tracing, metrics and profiling as configured.
// Disabled signals get no-op providers.
func NewTelemetry(ctx context.Context, cfg *config.Config, logs *telemetry.LoggerProvider, log *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{Logs: logs}
	tc := cfg.Telemetry

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	t.Tracer = tp

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsExportInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	t.Meter = mp

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           tc.ProfilingEnabled,
		ServerAddress:     tc.ProfilingAddress,
		ApplicationName:   tc.ServiceName,
		BasicAuthUser:     tc.ProfilingBasicAuthUser,
		BasicAuthPassword: tc.ProfilingBasicAuthPass,
		ProfileTypes:      tc.ProfilingTypes,
	}, log)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, fmt.Errorf("init profiling: %w", err)
	}
	t.Profiler = profiler

	if tc.SpanProfilesEnabled && tc.ProfilingEnabled {
		tp.EnableSpanProfiles()
	}
	return t, nil
}

// MeterFor returns the named meter, or nil when metrics are off
func (t *Telemetry) MeterFor(name string) metric.Meter {
	if t == nil || t.Meter == nil || !t.Meter.IsEnabled() {
		return nil
	}
	return t.Meter.Meter(name)
}

// Shutdown flushes and stops every provider, profiler first
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// OpenDatabase connects to PostgreSQL with the zap query logger and the tracing plugin
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	return persistence.NewDatabaseWithOptions(&cfg.Database, persistence.Options{
		Logger:    log,
		LogLevel:  logger.ParseGormLevel(cfg.Log.Level),
		SlowQuery: cfg.Telemetry.DBSlowQueryThresh,
		Tracing: telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgres",
		},
	})
}

// Core holds the synchronization services shared by every entry point
type Core struct {
	Configs      *persistence.GormERPConfigRepository
	Links        *persistence.GormDocumentLinkRepository
	Factory      *erp.ClientFactory
	Orchestrator *appsync.BatchSyncOrchestrator
	Runs         *appsync.SyncRunService
	Checker      *appsync.ConnectionChecker
	ConfigSvc    *appsync.ConfigService
	Lifecycle    *appsync.OrderLifecycleService

	closeLock func() error
}

// NewCore builds the repositories, the ERP client factory and the application
// services. meter may be nil.
func NewCore(ctx context.Context, cfg *config.Config, db *persistence.Database, meter metric.Meter, log *zap.Logger) (*Core, error) {
	sealer, err := newSealer(cfg, log)
	if err != nil {
		return nil, err
	}

	var metrics appsync.Metrics
	var clientOpts []erp.ClientOption
	if meter != nil {
		sm, err := telemetry.NewSyncMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("init sync metrics: %w", err)
		}
		metrics = sm
		clientOpts = append(clientOpts, erp.WithRequestRecorder(sm))
	}

	configs := persistence.NewGormERPConfigRepository(db.DB, sealer)
	links := persistence.NewGormDocumentLinkRepository(db.DB)
	source := persistence.NewGormRecordSource(db.DB)

	factory := erp.NewClientFactory(erp.ClientConfig{
		Timeout:         cfg.ERP.RequestTimeout,
		MaxResponseSize: cfg.ERP.MaxResponseSize,
		UserAgent:       cfg.ERP.UserAgent,
	}, log.Named("erp"), clientOpts...)

	syncer := appsync.NewEntitySyncService(log.Named("sync"),
		appsync.WithDocumentLinks(links),
		appsync.WithSyncMetrics(metrics),
	)

	defaults := appsync.DefaultMappingDefaults()
	orchestrator := appsync.NewBatchSyncOrchestrator(configs, factory, source, syncer, appsync.OrchestratorConfig{
		DefaultBatchSize: cfg.ERP.DefaultBatchSize,
		DefaultKinds:     cfg.ERP.DefaultEntityKinds,
		Mapping:          defaults,
	}, log.Named("orchestrator"))

	lock, closeLock, err := cache.NewRunLockFactory(cfg.Redis, cfg.Scheduler.LockTTL,
		cache.WithLogger(log.Named("runlock")),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateLock(ctx)
	if err != nil {
		return nil, err
	}

	return &Core{
		Configs:      configs,
		Links:        links,
		Factory:      factory,
		Orchestrator: orchestrator,
		Runs:         appsync.NewSyncRunService(orchestrator, lock, metrics, log.Named("runs")),
		Checker:      appsync.NewConnectionChecker(configs, factory, log.Named("diagnostic")),
		ConfigSvc:    appsync.NewConfigService(configs),
		Lifecycle:    appsync.NewOrderLifecycleService(configs, factory, links, defaults, metrics, log.Named("lifecycle")),
		closeLock:    closeLock,
	}, nil
}

// Close releases the run lock's Redis client
func (c *Core) Close() error {
	if c.closeLock == nil {
		return nil
	}
	return c.closeLock()
}

// newSealer builds the credential cipher. Outside production a missing key
// gets an ephemeral one, so stored secrets do not survive a restart.
func newSealer(cfg *config.Config, log *zap.Logger) (*secret.Cipher, error) {
	key := cfg.ERP.CredentialKey
	if key == "" {
		if cfg.IsProduction() {
			return nil, errors.New("erp.credential_key is required")
		}
		generated, err := secret.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generate credential key: %w", err)
		}
		log.Warn("erp.credential_key not set, using an ephemeral key")
		key = generated
	}
	c, err := secret.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init credential cipher: %w", err)
	}
	return c, nil
}
