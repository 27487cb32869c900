package erpsync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordSource loads internal records from the internal data store.
// Pages are ordered deterministically so offset paging is stable.
type RecordSource interface {
	LoadPage(ctx context.Context, tenantID uuid.UUID, kind EntityKind, offset, limit int) ([]Record, error)
}

// DocumentLink points an internal record at its ERP native name
type DocumentLink struct {
	TenantID     uuid.UUID
	Kind         EntityKind
	ExternalID   string
	DocumentType string
	NativeName   string
	CreatedAt    time.Time
}

// DocumentLinkRepository stores native names observed during synchronization
type DocumentLinkRepository interface {
	// Save upserts the link for (tenant, kind, external ID)
	Save(ctx context.Context, link *DocumentLink) error
	// FindNativeName returns the stored native name, or "" with no error if absent
	FindNativeName(ctx context.Context, tenantID uuid.UUID, kind EntityKind, externalID string) (string, error)
}

// RunLock provides per-tenant mutual exclusion for full synchronization runs
type RunLock interface {
	// Acquire returns ErrSyncRunInProgress if another run holds the lock
	Acquire(ctx context.Context, tenantID uuid.UUID) (release func(context.Context) error, err error)
}
