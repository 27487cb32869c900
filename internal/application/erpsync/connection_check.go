package erpsync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// DiagnosticStatus is the outcome class of a connection test
type DiagnosticStatus string

const (
	DiagnosticOK         DiagnosticStatus = "ok"
	DiagnosticAuthFailed DiagnosticStatus = "auth_failed"
	DiagnosticNotFound   DiagnosticStatus = "not_found"
	DiagnosticTimeout    DiagnosticStatus = "timeout"
	DiagnosticFailed     DiagnosticStatus = "failed"
)

// ConnectionDiagnostic is the user-facing result of a connection test
type ConnectionDiagnostic struct {
	Status     DiagnosticStatus `json:"status"`
	Message    string           `json:"message"`
	StatusCode int              `json:"status_code,omitempty"`
	User       string           `json:"user,omitempty"`
	LatencyMS  int64            `json:"latency_ms"`
	CheckedAt  time.Time        `json:"checked_at"`
}

// OK reports whether the connection test passed
func (d *ConnectionDiagnostic) OK() bool {
	return d.Status == DiagnosticOK
}

// Diagnose classifies a connection test result into a status and a message
// an operator can act on.
func Diagnose(err error) (DiagnosticStatus, string) {
	if err == nil {
		return DiagnosticOK, "connection successful"
	}

	e, ok := erpsync.AsError(err)
	if !ok {
		return DiagnosticFailed, err.Error()
	}
	switch {
	case e.Kind == erpsync.ErrorKindAuth:
		return DiagnosticAuthFailed, "authentication failed: check API key and secret"
	case e.Kind == erpsync.ErrorKindNotFound:
		return DiagnosticNotFound, "ERP instance or record not found"
	case e.Timeout:
		return DiagnosticTimeout, "no response from server"
	case e.StatusCode == 0:
		return DiagnosticFailed, "could not reach server: " + e.Message
	}
	return DiagnosticFailed, fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// ConnectorOpener builds a connector without verifying it
type ConnectorOpener interface {
	Open(cfg *erpsync.ERPConfig) (erpsync.Connector, error)
}

// ConnectionChecker tests a tenant's ERP credentials
type ConnectionChecker struct {
	configs erpsync.ERPConfigProvider
	opener  ConnectorOpener
	logger  *zap.Logger
}

// NewConnectionChecker creates a new ConnectionChecker
func NewConnectionChecker(configs erpsync.ERPConfigProvider, opener ConnectorOpener, logger *zap.Logger) *ConnectionChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionChecker{configs: configs, opener: opener, logger: logger}
}

// Check pings the ERP with the tenant's stored credentials. A disabled
// configuration is still tested. Only a missing configuration is an error;
// every ERP failure is reported in the diagnostic.
func (c *ConnectionChecker) Check(ctx context.Context, tenantID uuid.UUID) (*ConnectionDiagnostic, error) {
	cfg, err := c.configs.GetERPConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, erpsync.ErrConfigNotFound
	}

	diag := &ConnectionDiagnostic{CheckedAt: time.Now()}
	start := time.Now()

	conn, err := c.opener.Open(cfg)
	if err == nil {
		diag.User, err = conn.Ping(ctx)
	}
	diag.LatencyMS = time.Since(start).Milliseconds()
	diag.Status, diag.Message = Diagnose(err)
	if e, ok := erpsync.AsError(err); ok {
		diag.StatusCode = e.StatusCode
	}

	c.logger.Info("ERP connection tested",
		zap.String("tenant_id", tenantID.String()),
		zap.String("status", string(diag.Status)),
		zap.Int64("latency_ms", diag.LatencyMS),
	)
	return diag, nil
}
