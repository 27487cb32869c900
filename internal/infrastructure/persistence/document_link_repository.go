package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/persistence/models"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/persistence/tenant"
)

// GormDocumentLinkRepository implements erpsync.DocumentLinkRepository on erp_document_links
type GormDocumentLinkRepository struct {
	db *gorm.DB
}

// NewGormDocumentLinkRepository creates a new GormDocumentLinkRepository
func NewGormDocumentLinkRepository(db *gorm.DB) *GormDocumentLinkRepository {
	return &GormDocumentLinkRepository{db: db}
}

// Save upserts the link on (tenant_id, entity_kind, external_id).
// A re-created document replaces the stored native name.
func (r *GormDocumentLinkRepository) Save(ctx context.Context, link *erpsync.DocumentLink) error {
	if link.TenantID == uuid.Nil || link.ExternalID == "" || link.NativeName == "" {
		return fmt.Errorf("save document link: tenant, external ID and native name are required")
	}

	var model models.ERPDocumentLinkModel
	model.FromDomain(link)
	model.ID = uuid.New()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "entity_kind"},
			{Name: "external_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"document_type", "native_name", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save document link: %w", err)
	}
	return nil
}

// FindNativeName returns the stored native name, or "" when no link exists
func (r *GormDocumentLinkRepository) FindNativeName(
	ctx context.Context,
	tenantID uuid.UUID,
	kind erpsync.EntityKind,
	externalID string,
) (string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.ERPDocumentLinkModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("entity_kind = ? AND external_id = ?", kind.String(), externalID).
		Limit(1).
		Pluck("native_name", &names).Error
	if err != nil {
		return "", fmt.Errorf("find document link: %w", err)
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}

// nativeNames resolves the native names of many records of one kind in one query
func (r *GormDocumentLinkRepository) nativeNames(
	ctx context.Context,
	tenantID uuid.UUID,
	kind erpsync.EntityKind,
	externalIDs []string,
) (map[string]string, error) {
	out := make(map[string]string, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}

	var rows []models.ERPDocumentLinkModel
	err := r.db.WithContext(ctx).
		Select("external_id", "native_name").
		Scopes(tenant.Scope(tenantID)).
		Where("entity_kind = ? AND external_id IN ?", kind.String(), externalIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("resolve %s document links: %w", kind, err)
	}
	for _, row := range rows {
		out[row.ExternalID] = row.NativeName
	}
	return out, nil
}

var _ erpsync.DocumentLinkRepository = (*GormDocumentLinkRepository)(nil)
