package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/persistence/models"
)

// ErrERPConfigNotFound is returned when a tenant has no stored ERP configuration.
// It matches erpsync.ErrConfigNotFound under errors.Is.
var ErrERPConfigNotFound = fmt.Errorf("persistence: %w", erpsync.ErrConfigNotFound)

// SecretSealer encrypts and decrypts credentials bound to additional data
type SecretSealer interface {
	Seal(plaintext, additionalData string) (string, error)
	Open(encoded, additionalData string) (string, error)
}

// GormERPConfigRepository implements erpsync.ERPConfigRepository on tenant_erp_configs.
// The API secret is sealed with the tenant ID as additional data, so a sealed
// value copied to another tenant's row fails to open.
type GormERPConfigRepository struct {
	db     *gorm.DB
	sealer SecretSealer
}

// NewGormERPConfigRepository creates a new GormERPConfigRepository
func NewGormERPConfigRepository(db *gorm.DB, sealer SecretSealer) *GormERPConfigRepository {
	return &GormERPConfigRepository{db: db, sealer: sealer}
}

// GetERPConfig loads and decrypts the tenant's configuration
func (r *GormERPConfigRepository) GetERPConfig(ctx context.Context, tenantID uuid.UUID) (*erpsync.ERPConfig, error) {
	var model models.TenantERPConfigModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID.String()).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrERPConfigNotFound
		}
		return nil, fmt.Errorf("load ERP config: %w", err)
	}

	secret, err := r.sealer.Open(model.APISecretEncrypted, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("decrypt ERP API secret: %w", err)
	}
	return model.ToDomain(secret), nil
}

// SaveERPConfig seals the secret and upserts the tenant's row
func (r *GormERPConfigRepository) SaveERPConfig(ctx context.Context, cfg *erpsync.ERPConfig) error {
	sealed, err := r.sealer.Seal(cfg.APISecret, cfg.TenantID.String())
	if err != nil {
		return fmt.Errorf("encrypt ERP API secret: %w", err)
	}

	var model models.TenantERPConfigModel
	model.FromDomain(cfg, sealed)

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"base_url", "api_key", "api_secret_encrypted",
			"default_customer_group", "default_territory",
			"company", "default_warehouse", "enabled", "updated_at",
		}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save ERP config: %w", err)
	}
	return nil
}

// GetAllActiveTenantIDs lists tenants whose integration is enabled
func (r *GormERPConfigRepository) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.TenantERPConfigModel{}).
		Where("enabled = ?", true).
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	tenants := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("list active tenants: invalid tenant id %q: %w", id, err)
		}
		tenants = append(tenants, parsed)
	}
	return tenants, nil
}

var _ erpsync.ERPConfigRepository = (*GormERPConfigRepository)(nil)
