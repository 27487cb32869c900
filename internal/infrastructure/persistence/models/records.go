package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// Internal system-of-record tables read by the synchronization record source.
// Every table is tenant-scoped and paged in (created_at, id) order.

// CustomerModel is a row of the customers table
type CustomerModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index:idx_customers_tenant_created,priority:1"`
	Name         string    `gorm:"type:varchar(200);not null"`
	CustomerType string    `gorm:"type:varchar(20);not null;default:'INDIVIDUAL'"`
	Email        string    `gorm:"type:varchar(200)"`
	Phone        string    `gorm:"type:varchar(50)"`
	CreatedAt    time.Time `gorm:"not null;index:idx_customers_tenant_created,priority:2"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the row to a domain Customer
func (m *CustomerModel) ToDomain() *erpsync.Customer {
	return &erpsync.Customer{
		ID:    m.ID,
		Name:  m.Name,
		Type:  erpsync.CustomerType(m.CustomerType),
		Email: m.Email,
		Phone: m.Phone,
	}
}

// CustomerAddressModel is a row of the customer_addresses table
type CustomerAddressModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index:idx_customer_addresses_tenant_created,priority:1"`
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	AddressType string    `gorm:"type:varchar(20);not null;default:'BILLING'"`
	Line1       string    `gorm:"type:varchar(240);not null"`
	Line2       string    `gorm:"type:varchar(240)"`
	City        string    `gorm:"type:varchar(140);not null"`
	State       string    `gorm:"type:varchar(140)"`
	PostalCode  string    `gorm:"type:varchar(20)"`
	Country     string    `gorm:"type:varchar(140);not null"`
	Email       string    `gorm:"type:varchar(200)"`
	Phone       string    `gorm:"type:varchar(50)"`
	CreatedAt   time.Time `gorm:"not null;index:idx_customer_addresses_tenant_created,priority:2"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerAddressModel) TableName() string {
	return "customer_addresses"
}

// ToDomain converts the row to a domain Address linked to the customer's native name
func (m *CustomerAddressModel) ToDomain(customerName string) *erpsync.Address {
	return &erpsync.Address{
		ID:           m.ID,
		CustomerID:   m.CustomerID,
		CustomerName: customerName,
		Type:         erpsync.AddressType(m.AddressType),
		Line1:        m.Line1,
		Line2:        m.Line2,
		City:         m.City,
		State:        m.State,
		PostalCode:   m.PostalCode,
		Country:      m.Country,
		Email:        m.Email,
		Phone:        m.Phone,
	}
}

// ProductCategoryModel is a row of the product_categories table
type ProductCategoryModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_product_categories_tenant_created,priority:1"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index"`
	Name      string     `gorm:"type:varchar(140);not null"`
	IsGroup   bool       `gorm:"not null;default:false"`
	CreatedAt time.Time  `gorm:"not null;index:idx_product_categories_tenant_created,priority:2"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductCategoryModel) TableName() string {
	return "product_categories"
}

// ToDomain converts the row to a domain Category under the given parent name
func (m *ProductCategoryModel) ToDomain(parentName string) *erpsync.Category {
	return &erpsync.Category{
		ID:         m.ID,
		Name:       m.Name,
		ParentName: parentName,
		IsGroup:    m.IsGroup,
	}
}

// ProductModel is a row of the products table
type ProductModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_products_tenant_created,priority:1"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	SKU         string          `gorm:"column:sku;type:varchar(100);not null"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Unit        string          `gorm:"type:varchar(20)"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsStockItem bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time       `gorm:"not null;index:idx_products_tenant_created,priority:2"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the row to a domain Product in the given category
func (m *ProductModel) ToDomain(categoryName string) *erpsync.Product {
	return &erpsync.Product{
		ID:           m.ID,
		SKU:          m.SKU,
		Name:         m.Name,
		Description:  m.Description,
		CategoryName: categoryName,
		Unit:         m.Unit,
		Price:        m.Price,
		IsStockItem:  m.IsStockItem,
	}
}

// SalesOrderModel is a row of the sales_orders table
type SalesOrderModel struct {
	ID           uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID             `gorm:"type:uuid;not null;index:idx_sales_orders_tenant_created,priority:1"`
	CustomerID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	OrderNumber  string                `gorm:"type:varchar(50);not null"`
	Status       string                `gorm:"type:varchar(30);not null"`
	Currency     string                `gorm:"type:varchar(3)"`
	OrderDate    time.Time             `gorm:"not null"`
	DeliveryDate *time.Time
	Items        []SalesOrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt    time.Time             `gorm:"not null;index:idx_sales_orders_tenant_created,priority:2"`
	UpdatedAt    time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the row and its lines to a domain Order placed by the given customer
func (m *SalesOrderModel) ToDomain(customerName string) *erpsync.Order {
	order := &erpsync.Order{
		ID:           m.ID,
		OrderNumber:  m.OrderNumber,
		CustomerID:   m.CustomerID,
		CustomerName: customerName,
		Status:       m.Status,
		Currency:     m.Currency,
		OrderDate:    m.OrderDate,
		Items:        make([]erpsync.OrderItem, 0, len(m.Items)),
	}
	if m.DeliveryDate != nil {
		order.DeliveryDate = *m.DeliveryDate
	}
	for _, item := range m.Items {
		order.Items = append(order.Items, erpsync.OrderItem{
			ProductSKU:  item.ProductSKU,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return order
}

// SalesOrderItemModel is a row of the sales_order_items table
type SalesOrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null;default:0"`
	ProductSKU  string          `gorm:"column:product_sku;type:varchar(100);not null"`
	ProductName string          `gorm:"type:varchar(200)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}

// PaymentModel is a row of the payments table
type PaymentModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_tenant_created,priority:1"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1"`
	Method       string          `gorm:"type:varchar(50)"`
	Reference    string          `gorm:"type:varchar(140)"`
	PaidAt       time.Time       `gorm:"not null"`
	CreatedAt    time.Time       `gorm:"not null;index:idx_payments_tenant_created,priority:2"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the row to a domain Payment against the given order and party
func (m *PaymentModel) ToDomain(orderName, partyName string) *erpsync.Payment {
	return &erpsync.Payment{
		ID:           m.ID,
		OrderID:      m.OrderID,
		OrderName:    orderName,
		PartyName:    partyName,
		Amount:       m.Amount,
		Currency:     m.Currency,
		ExchangeRate: m.ExchangeRate,
		Method:       m.Method,
		Reference:    m.Reference,
		PaidAt:       m.PaidAt,
	}
}

// RecordModels lists the record tables for schema creation in tests
func RecordModels() []any {
	return []any{
		&CustomerModel{},
		&CustomerAddressModel{},
		&ProductCategoryModel{},
		&ProductModel{},
		&SalesOrderModel{},
		&SalesOrderItemModel{},
		&PaymentModel{},
	}
}
