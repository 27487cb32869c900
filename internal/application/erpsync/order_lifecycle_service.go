package erpsync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// OrderLifecycleService is the tenant-scoped entry point for order lifecycle
// changes. Every call loads the tenant's configuration and opens a fresh connector.
type OrderLifecycleService struct {
	configs  erpsync.ERPConfigProvider
	factory  erpsync.ConnectorFactory
	links    erpsync.DocumentLinkRepository
	defaults MappingDefaults
	metrics  Metrics
	logger   *zap.Logger
}

// NewOrderLifecycleService creates a new OrderLifecycleService
func NewOrderLifecycleService(
	configs erpsync.ERPConfigProvider,
	factory erpsync.ConnectorFactory,
	links erpsync.DocumentLinkRepository,
	defaults MappingDefaults,
	metrics Metrics,
	logger *zap.Logger,
) *OrderLifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderLifecycleService{
		configs:  configs,
		factory:  factory,
		links:    links,
		defaults: defaults,
		metrics:  metricsOrNop(metrics),
		logger:   logger,
	}
}

// UpdateOrderStatus applies the new internal status to the tenant's ERP order
func (s *OrderLifecycleService) UpdateOrderStatus(ctx context.Context, tenantID uuid.UUID, orderID, status string) (erpsync.Document, error) {
	driver, err := s.driverFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return driver.UpdateOrderStatus(ctx, orderID, status)
}

// CreatePayment records a payment against the tenant's ERP order
func (s *OrderLifecycleService) CreatePayment(
	ctx context.Context,
	tenantID uuid.UUID,
	orderID, partyID string,
	details erpsync.PaymentDetails,
) (erpsync.Document, error) {
	driver, err := s.driverFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return driver.CreatePayment(ctx, orderID, partyID, details)
}

func (s *OrderLifecycleService) driverFor(ctx context.Context, tenantID uuid.UUID) (*OrderLifecycleDriver, error) {
	cfg, err := loadEnabledConfig(ctx, s.configs, tenantID)
	if err != nil {
		return nil, err
	}
	conn, err := s.factory.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewOrderLifecycleDriver(conn, s.links, s.defaults.WithTenant(cfg), s.metrics, s.logger), nil
}
