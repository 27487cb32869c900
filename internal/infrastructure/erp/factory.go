package erp

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// ClientFactory builds a new tenant-bound Client for every Connect call.
// Clients are never pooled, so credentials cannot leak between tenants.
type ClientFactory struct {
	config  ClientConfig
	logger  *zap.Logger
	options []ClientOption
}

// NewClientFactory creates a factory with shared transport settings
func NewClientFactory(config ClientConfig, logger *zap.Logger, opts ...ClientOption) *ClientFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientFactory{
		config:  config,
		logger:  logger,
		options: opts,
	}
}

// Connect validates the configuration, builds a client and verifies authentication.
// A failed authentication check returns the typed auth error unchanged.
func (f *ClientFactory) Connect(ctx context.Context, cfg *erpsync.ERPConfig) (erpsync.Connector, error) {
	client, err := NewClient(cfg, f.config, f.options...)
	if err != nil {
		return nil, err
	}

	user, err := client.Ping(ctx)
	if err != nil {
		f.logger.Warn("ERP authentication check failed",
			zap.String("tenant_id", cfg.TenantID.String()),
			zap.String("base_url", cfg.NormalizedBaseURL()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("erp: connect: %w", err)
	}

	f.logger.Debug("ERP connection established",
		zap.String("tenant_id", cfg.TenantID.String()),
		zap.String("user", user),
	)
	return client, nil
}

// Open builds a connector without the authentication check.
// The connection diagnostic uses it to time and classify the check itself.
func (f *ClientFactory) Open(cfg *erpsync.ERPConfig) (erpsync.Connector, error) {
	client, err := NewClient(cfg, f.config, f.options...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Interface compliance check
var _ erpsync.ConnectorFactory = (*ClientFactory)(nil)
