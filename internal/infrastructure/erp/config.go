package erp

import (
	"errors"
	"time"
)

const (
	// DefaultTimeout bounds every ERP request
	DefaultTimeout = 10 * time.Second
	// DefaultMaxResponseSize caps how much of a response body is read (10MB)
	DefaultMaxResponseSize int64 = 10 << 20
	// DefaultUserAgent identifies the sync engine to the ERP
	DefaultUserAgent = "cartzilla-erpsync/1.0"
)

// ERP REST paths
const (
	resourcePath       = "/api/resource/"
	applyWorkflowPath  = "/api/method/frappe.model.workflow.apply_workflow"
	loggedUserPath     = "/api/method/frappe.auth.get_logged_user"
	externalIDOperator = "="
)

// Errors for client configuration
var (
	ErrClientConfigInvalidTimeout = errors.New("erp: timeout must be positive")
	ErrClientConfigInvalidMaxSize = errors.New("erp: max response size must be positive")
)

// ClientConfig holds transport settings shared by every tenant's client.
// Credentials are not part of it; they come from the tenant's ERPConfig.
type ClientConfig struct {
	// Timeout is the per-request timeout
	Timeout time.Duration
	// MaxResponseSize caps the bytes read from a response body
	MaxResponseSize int64
	// UserAgent is sent on every request
	UserAgent string
}

// DefaultClientConfig returns the default transport settings
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:         DefaultTimeout,
		MaxResponseSize: DefaultMaxResponseSize,
		UserAgent:       DefaultUserAgent,
	}
}

// Validate validates the configuration
func (c *ClientConfig) Validate() error {
	if c.Timeout <= 0 {
		return ErrClientConfigInvalidTimeout
	}
	if c.MaxResponseSize <= 0 {
		return ErrClientConfigInvalidMaxSize
	}
	return nil
}

// withDefaults fills zero values with defaults
func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxResponseSize == 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}
