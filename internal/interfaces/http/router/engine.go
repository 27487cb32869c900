package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/config"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/logger"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/handler"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/middleware"
)

// Deps are the collaborators the HTTP API is built from
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Meter    metric.Meter
	Verifier middleware.TokenVerifier
	ERP      *handler.ERPSyncHandler
	Health   *handler.HealthHandler
}

// NewEngine builds the gin engine with the global middleware stack,
// GET /health and the tenant-scoped /api/v1/erp routes.
func NewEngine(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	// RequestID runs before the logger, tracing before the span marker
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(d.Meter),
		middleware.CORSWithConfig(cors),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	if d.Health != nil {
		engine.GET("/health", d.Health.Health)
	}

	if d.ERP != nil {
		Mount(engine, DefaultAPIVersion, ERPRoutes(d.ERP,
			middleware.TenantAuth(middleware.AuthConfig{
				Verifier:          d.Verifier,
				AllowTenantHeader: cfg.Auth.AllowTenantHeader,
				Logger:            log,
			}),
			middleware.Profiling(cfg.Telemetry.ProfilingEnabled),
		))
	}
	return engine, nil
}

// ERPRoutes groups the sync API under /erp
func ERPRoutes(h *handler.ERPSyncHandler, mw ...gin.HandlerFunc) *RouteGroup {
	return NewRouteGroup("/erp").
		Use(mw...).
		POST("/sync", h.RunSync).
		POST("/sync/retry", h.RetrySync).
		POST("/sync/:kind", h.RunKindSync).
		GET("/sync/jobs", h.ListSyncJobs).
		GET("/connection/test", h.TestConnection).
		GET("/config", h.GetConfig).
		PUT("/config", h.PutConfig).
		POST("/orders/:id/status", h.UpdateOrderStatus).
		POST("/orders/:id/payments", h.CreatePayment)
}
