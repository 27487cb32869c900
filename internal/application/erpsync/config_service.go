package erpsync

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// ConfigService manages tenant ERP configuration.
// The API secret is write-only: it is never returned and an empty secret on
// update keeps the stored one.
type ConfigService struct {
	repo erpsync.ERPConfigRepository
}

// NewConfigService creates a new ConfigService
func NewConfigService(repo erpsync.ERPConfigRepository) *ConfigService {
	return &ConfigService{repo: repo}
}

// Get returns the tenant's configuration with the secret cleared
func (s *ConfigService) Get(ctx context.Context, tenantID uuid.UUID) (*erpsync.ERPConfig, error) {
	cfg, err := s.repo.GetERPConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := *cfg
	out.APISecret = ""
	return &out, nil
}

// Save validates and stores the tenant's configuration
func (s *ConfigService) Save(ctx context.Context, cfg *erpsync.ERPConfig) error {
	if cfg.APISecret == "" {
		existing, err := s.repo.GetERPConfig(ctx, cfg.TenantID)
		switch {
		case err == nil:
			cfg.APISecret = existing.APISecret
		case !errors.Is(err, erpsync.ErrConfigNotFound):
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.repo.SaveERPConfig(ctx, cfg)
}
