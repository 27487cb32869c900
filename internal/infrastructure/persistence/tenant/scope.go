// Package tenant restricts GORM queries to one tenant's rows.
//
// Every tenant-owned table carries a tenant_id column. Repositories apply
// Scope to each query instead of relying on a global callback, because the
// scheduler legitimately reads across tenants when it lists enabled ones.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant column shared by every tenant-owned table
const Column = "tenant_id"

// ErrTenantIDRequired is returned when a scoped query has no tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Scope applies tenant filtering to a query. A nil tenant fails the query
// instead of silently matching nothing.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(Column+" = ?", tenantID.String())
	}
}
