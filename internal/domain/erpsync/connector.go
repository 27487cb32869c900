package erpsync

import (
	"context"

	"github.com/google/uuid"
)

// Connector is the port for an authenticated ERP REST client.
// An instance is bound to exactly one tenant's credentials for its lifetime
// and must never be reused across tenants.
type Connector interface {
	// TenantID returns the tenant whose credentials the connector carries
	TenantID() uuid.UUID

	// Create creates a document and returns its native name.
	// Fails with a validation error on rejection, auth error on 401 and
	// connection error on network failure or timeout.
	Create(ctx context.Context, docType string, payload Document) (*CreateResult, error)

	// Update applies a partial payload to an existing document
	Update(ctx context.Context, docType, name string, payload Document) (Document, error)

	// Get fetches a document by native name; fails with a not-found error on 404
	Get(ctx context.Context, docType, name string) (Document, error)

	// FindByExternalID looks up a document by its external ID field.
	// Returns (nil, nil) when nothing matches.
	FindByExternalID(ctx context.Context, docType, externalID string) (Document, error)

	// InvokeAction applies a workflow action (Submit, Pack, Ship, ...) to a document
	InvokeAction(ctx context.Context, doc Document, action string) (Document, error)

	// Ping verifies credentials and returns the authenticated user
	Ping(ctx context.Context) (string, error)
}

// ConnectorFactory builds tenant-bound connectors.
// Connect validates the configuration and verifies authentication before returning.
type ConnectorFactory interface {
	Connect(ctx context.Context, cfg *ERPConfig) (Connector, error)
}
