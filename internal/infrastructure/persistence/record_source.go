package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/persistence/models"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/persistence/tenant"
)

// GormRecordSource implements erpsync.RecordSource over the internal record tables.
// References to parent records (customer, category, order) are resolved to the
// ERP native names stored in erp_document_links, one query per page.
type GormRecordSource struct {
	db    *gorm.DB
	links *GormDocumentLinkRepository
}

// NewGormRecordSource creates a new GormRecordSource
func NewGormRecordSource(db *gorm.DB) *GormRecordSource {
	return &GormRecordSource{db: db, links: NewGormDocumentLinkRepository(db)}
}

// LoadPage returns up to limit records of one kind starting at offset,
// ordered by (created_at, id)
func (s *GormRecordSource) LoadPage(
	ctx context.Context,
	tenantID uuid.UUID,
	kind erpsync.EntityKind,
	offset, limit int,
) ([]erpsync.Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("load %s page: limit must be positive", kind)
	}
	if offset < 0 {
		offset = 0
	}

	switch kind {
	case erpsync.EntityKindCustomer:
		return s.customers(ctx, tenantID, offset, limit)
	case erpsync.EntityKindAddress:
		return s.addresses(ctx, tenantID, offset, limit)
	case erpsync.EntityKindCategory:
		return s.categories(ctx, tenantID, offset, limit)
	case erpsync.EntityKindProduct:
		return s.products(ctx, tenantID, offset, limit)
	case erpsync.EntityKindOrder:
		return s.orders(ctx, tenantID, offset, limit)
	case erpsync.EntityKindPayment:
		return s.payments(ctx, tenantID, offset, limit)
	}
	return nil, fmt.Errorf("%w: %q", erpsync.ErrUnknownEntityKind, kind)
}

func (s *GormRecordSource) page(ctx context.Context, tenantID uuid.UUID, offset, limit int) *gorm.DB {
	return s.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Order("created_at").
		Order("id").
		Offset(offset).
		Limit(limit)
}

func (s *GormRecordSource) customers(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]erpsync.Record, error) {
	var rows []models.CustomerModel
	if err := s.page(ctx, tenantID, offset, limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	records := make([]erpsync.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].ToDomain())
	}
	return records, nil
}

func (s *GormRecordSource) addresses(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]erpsync.Record, error) {
	var rows []models.CustomerAddressModel
	if err := s.page(ctx, tenantID, offset, limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load customer addresses: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.CustomerID)
	}
	customers, err := s.links.nativeNames(ctx, tenantID, erpsync.EntityKindCustomer, idStrings(ids))
	if err != nil {
		return nil, err
	}

	records := make([]erpsync.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].ToDomain(customers[rows[i].CustomerID.String()]))
	}
	return records, nil
}

func (s *GormRecordSource) categories(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]erpsync.Record, error) {
	var rows []models.ProductCategoryModel
	if err := s.page(ctx, tenantID, offset, limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load product categories: %w", err)
	}

	var parents []uuid.UUID
	for _, row := range rows {
		if row.ParentID != nil {
			parents = append(parents, *row.ParentID)
		}
	}
	names, err := s.categoryNames(ctx, tenantID, parents)
	if err != nil {
		return nil, err
	}

	records := make([]erpsync.Record, 0, len(rows))
	for i := range rows {
		parent := ""
		if rows[i].ParentID != nil {
			parent = names[*rows[i].ParentID]
		}
		records = append(records, rows[i].ToDomain(parent))
	}
	return records, nil
}

func (s *GormRecordSource) products(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]erpsync.Record, error) {
	var rows []models.ProductModel
	if err := s.page(ctx, tenantID, offset, limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	var categories []uuid.UUID
	for _, row := range rows {
		if row.CategoryID != nil {
			categories = append(categories, *row.CategoryID)
		}
	}
	names, err := s.categoryNames(ctx, tenantID, categories)
	if err != nil {
		return nil, err
	}

	records := make([]erpsync.Record, 0, len(rows))
	for i := range rows {
		group := ""
		if rows[i].CategoryID != nil {
			group = names[*rows[i].CategoryID]
		}
		records = append(records, rows[i].ToDomain(group))
	}
	return records, nil
}

func (s *GormRecordSource) orders(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]erpsync.Record, error) {
	var rows []models.SalesOrderModel
	err := s.page(ctx, tenantID, offset, limit).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load sales orders: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.CustomerID)
	}
	customers, err := s.links.nativeNames(ctx, tenantID, erpsync.EntityKindCustomer, idStrings(ids))
	if err != nil {
		return nil, err
	}

	records := make([]erpsync.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].ToDomain(customers[rows[i].CustomerID.String()]))
	}
	return records, nil
}

func (s *GormRecordSource) payments(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]erpsync.Record, error) {
	var rows []models.PaymentModel
	if err := s.page(ctx, tenantID, offset, limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	if len(rows) == 0 {
		return []erpsync.Record{}, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		orderIDs = append(orderIDs, row.OrderID)
	}
	orderNames, err := s.links.nativeNames(ctx, tenantID, erpsync.EntityKindOrder, idStrings(orderIDs))
	if err != nil {
		return nil, err
	}

	// the paying party is the customer who placed the order
	var orders []models.SalesOrderModel
	err = s.db.WithContext(ctx).
		Select("id", "customer_id").
		Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", idStrings(orderIDs)).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("load payment orders: %w", err)
	}
	customerOf := make(map[uuid.UUID]uuid.UUID, len(orders))
	customerIDs := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		customerOf[o.ID] = o.CustomerID
		customerIDs = append(customerIDs, o.CustomerID)
	}
	parties, err := s.links.nativeNames(ctx, tenantID, erpsync.EntityKindCustomer, idStrings(customerIDs))
	if err != nil {
		return nil, err
	}

	records := make([]erpsync.Record, 0, len(rows))
	for i := range rows {
		orderID := rows[i].OrderID
		party := ""
		if customerID, ok := customerOf[orderID]; ok {
			party = parties[customerID.String()]
		}
		records = append(records, rows[i].ToDomain(orderNames[orderID.String()], party))
	}
	return records, nil
}

// categoryNames resolves Item Group names for category IDs. Item Groups are
// named after the category, so the category's own name stands in for a
// missing link.
func (s *GormRecordSource) categoryNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	linked, err := s.links.nativeNames(ctx, tenantID, erpsync.EntityKindCategory, idStrings(ids))
	if err != nil {
		return nil, err
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if name, ok := linked[id.String()]; ok {
			out[id] = name
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	var rows []models.ProductCategoryModel
	err = s.db.WithContext(ctx).
		Select("id", "name").
		Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", idStrings(missing)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load category names: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

// idStrings converts IDs to strings, dropping duplicates
func idStrings(ids []uuid.UUID) []string {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id.String())
	}
	return out
}

var _ erpsync.RecordSource = (*GormRecordSource)(nil)
