package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// TenantERPConfigModel is the persistence model for a tenant's ERP connection.
// The API secret is stored sealed, never in plain text.
type TenantERPConfigModel struct {
	TenantID             uuid.UUID `gorm:"type:uuid;primary_key"`
	BaseURL              string    `gorm:"type:varchar(500);not null"`
	APIKey               string    `gorm:"type:varchar(255);not null"`
	APISecretEncrypted   string    `gorm:"type:text;not null"`
	DefaultCustomerGroup string    `gorm:"type:varchar(140)"`
	DefaultTerritory     string    `gorm:"type:varchar(140)"`
	Company              string    `gorm:"type:varchar(140)"`
	DefaultWarehouse     string    `gorm:"type:varchar(140)"`
	Enabled              bool      `gorm:"not null;default:false;index"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantERPConfigModel) TableName() string {
	return "tenant_erp_configs"
}

// ToDomain converts the model to a domain ERPConfig carrying the given plain secret
func (m *TenantERPConfigModel) ToDomain(secret string) *erpsync.ERPConfig {
	return &erpsync.ERPConfig{
		TenantID:             m.TenantID,
		BaseURL:              m.BaseURL,
		APIKey:               m.APIKey,
		APISecret:            secret,
		DefaultCustomerGroup: m.DefaultCustomerGroup,
		DefaultTerritory:     m.DefaultTerritory,
		Company:              m.Company,
		DefaultWarehouse:     m.DefaultWarehouse,
		Enabled:              m.Enabled,
	}
}

// FromDomain populates the model from a domain ERPConfig and its sealed secret
func (m *TenantERPConfigModel) FromDomain(cfg *erpsync.ERPConfig, sealedSecret string) {
	m.TenantID = cfg.TenantID
	m.BaseURL = cfg.BaseURL
	m.APIKey = cfg.APIKey
	m.APISecretEncrypted = sealedSecret
	m.DefaultCustomerGroup = cfg.DefaultCustomerGroup
	m.DefaultTerritory = cfg.DefaultTerritory
	m.Company = cfg.Company
	m.DefaultWarehouse = cfg.DefaultWarehouse
	m.Enabled = cfg.Enabled
}

// ERPDocumentLinkModel maps an internal record to the ERP document created for it
type ERPDocumentLinkModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_erp_document_link,priority:1"`
	EntityKind   string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_erp_document_link,priority:2"`
	ExternalID   string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_erp_document_link,priority:3"`
	DocumentType string    `gorm:"type:varchar(140);not null"`
	NativeName   string    `gorm:"type:varchar(140);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ERPDocumentLinkModel) TableName() string {
	return "erp_document_links"
}

// ToDomain converts the model to a domain DocumentLink
func (m *ERPDocumentLinkModel) ToDomain() *erpsync.DocumentLink {
	return &erpsync.DocumentLink{
		TenantID:     m.TenantID,
		Kind:         erpsync.EntityKind(m.EntityKind),
		ExternalID:   m.ExternalID,
		DocumentType: m.DocumentType,
		NativeName:   m.NativeName,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the model from a domain DocumentLink
func (m *ERPDocumentLinkModel) FromDomain(link *erpsync.DocumentLink) {
	m.TenantID = link.TenantID
	m.EntityKind = link.Kind.String()
	m.ExternalID = link.ExternalID
	m.DocumentType = link.DocumentType
	m.NativeName = link.NativeName
	m.CreatedAt = link.CreatedAt
}
