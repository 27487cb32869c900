package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/dto"
)

// HealthCheck probes one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
	// Optional dependencies report "degraded" without failing the probe
	Optional bool
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy" enums:"healthy,degraded,unhealthy"`
	Service   string            `json:"service" example:"erp-sync"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// HealthHandler serves the liveness and dependency probe
type HealthHandler struct {
	BaseHandler
	service string
	checks  []HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(service string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{service: service, checks: checks, timeout: 2 * time.Second}
}

// Health reports 503 when a required dependency is down
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Service:   h.service,
		Checks:    make(map[string]string, len(h.checks)),
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusOK
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			resp.Checks[check.Name] = "down: " + err.Error()
			if check.Optional {
				if resp.Status == "healthy" {
					resp.Status = "degraded"
				}
				continue
			}
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = "up"
	}

	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
