package erpsync

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ERPConfig holds one tenant's ERP connection settings.
// It is read fresh for every run and must never be shared across tenants.
type ERPConfig struct {
	TenantID             uuid.UUID
	BaseURL              string
	APIKey               string
	APISecret            string
	DefaultCustomerGroup string
	DefaultTerritory     string
	Company              string
	DefaultWarehouse     string
	Enabled              bool
}

// Validate checks the fields required to open a connection
func (c *ERPConfig) Validate() error {
	if c.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant ID is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base URL is required", ErrConfigInvalid)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: base URL must be an absolute http(s) URL", ErrConfigInvalid)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrConfigInvalid)
	}
	if c.APISecret == "" {
		return fmt.Errorf("%w: API secret is required", ErrConfigInvalid)
	}
	return nil
}

// AuthorizationHeader returns the value sent in the Authorization header
func (c *ERPConfig) AuthorizationHeader() string {
	return "token " + c.APIKey + ":" + c.APISecret
}

// NormalizedBaseURL returns the base URL without a trailing slash
func (c *ERPConfig) NormalizedBaseURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// ERPConfigProvider loads tenant ERP configuration from the configuration store
type ERPConfigProvider interface {
	// GetERPConfig returns the tenant's configuration or ErrConfigNotFound
	GetERPConfig(ctx context.Context, tenantID uuid.UUID) (*ERPConfig, error)
}

// ERPConfigRepository persists tenant ERP configuration
type ERPConfigRepository interface {
	ERPConfigProvider
	// SaveERPConfig creates or replaces the tenant's configuration
	SaveERPConfig(ctx context.Context, cfg *ERPConfig) error
	// GetAllActiveTenantIDs lists tenants with an enabled configuration
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}
