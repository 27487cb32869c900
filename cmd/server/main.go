package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/bootstrap"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/auth"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/cache"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/config"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/persistence"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/scheduler"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/handler"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/middleware"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

//	@title			ERP Sync API
//	@version		1.0
//	@description	Synchronizes tenant customers, catalog, orders and payments with a Frappe/ERPNext instance.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	log, logs, err := bootstrap.NewLogger(ctx, cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ERP sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tel, err := bootstrap.NewTelemetry(ctx, cfg, logs, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	db, err := bootstrap.OpenDatabase(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	meter := tel.MeterFor("erpsync")
	core, err := bootstrap.NewCore(ctx, cfg, db, meter, log)
	if err != nil {
		log.Fatal("Failed to initialize sync engine", zap.Error(err))
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Error("Error closing run lock", zap.Error(err))
		}
	}()

	verifier, err := newVerifier(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize token verifier", zap.Error(err))
	}

	// built even when disabled so the job routes can run a tenant on demand
	sched, err := scheduler.NewFullSyncScheduler(scheduler.FullSyncSchedulerConfig{
		Interval:    cfg.Scheduler.Interval,
		RunTimeout:  cfg.Scheduler.RunTimeout,
		MaxRetries:  cfg.Scheduler.MaxRetries,
		RetryDelay:  cfg.Scheduler.RetryDelay,
		EntityKinds: cfg.ERP.DefaultEntityKinds,
		BatchSize:   cfg.ERP.DefaultBatchSize,
	}, core.Configs, core.Runs, log.Named("scheduler"))
	if err != nil {
		log.Fatal("Failed to create full sync scheduler", zap.Error(err))
	}

	engine, err := router.NewEngine(router.Deps{
		Config:   cfg,
		Logger:   log,
		Meter:    meter,
		Verifier: verifier,
		ERP:      handler.NewERPSyncHandler(core.Runs, core.Checker, core.ConfigSvc, core.Lifecycle).WithSyncJobs(sched),
		Health:   handler.NewHealthHandler(cfg.App.Name, healthChecks(cfg, db)...),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start full sync scheduler", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Error("Full sync scheduler did not stop cleanly", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// newVerifier returns nil when no JWT secret is configured, leaving only
// header tenancy (development) available
func newVerifier(cfg *config.Config, log *zap.Logger) (middleware.TokenVerifier, error) {
	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret not set, bearer tokens are rejected")
		return nil, nil
	}
	v, err := auth.NewJWTVerifier(cfg.Auth)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func healthChecks(cfg *config.Config, db *persistence.Database) []handler.HealthCheck {
	return []handler.HealthCheck{
		{Name: "database", Check: db.Ping},
		{
			Name:     "redis",
			Optional: true,
			Check: func(ctx context.Context) error {
				client, err := cache.NewRedisClient(ctx, cfg.Redis)
				if err != nil {
					return err
				}
				return client.Close()
			},
		},
	}
}
