package erpsync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is an internal system-of-record entity that can be synchronized.
// ExternalID is the record's own primary key and correlates it with the ERP.
type Record interface {
	ExternalID() string
	Kind() EntityKind
	Describe() string
}

// CustomerType distinguishes companies from individuals
type CustomerType string

const (
	CustomerTypeCompany    CustomerType = "COMPANY"
	CustomerTypeIndividual CustomerType = "INDIVIDUAL"
)

// Customer is an internal customer record
type Customer struct {
	ID    uuid.UUID
	Name  string
	Type  CustomerType
	Email string
	Phone string
}

func (c *Customer) ExternalID() string { return c.ID.String() }
func (c *Customer) Kind() EntityKind   { return EntityKindCustomer }
func (c *Customer) Describe() string   { return fmt.Sprintf("Customer %s (%s)", c.Name, c.ID) }

// AddressType distinguishes billing from shipping addresses
type AddressType string

const (
	AddressTypeBilling  AddressType = "BILLING"
	AddressTypeShipping AddressType = "SHIPPING"
)

// Address is an internal customer address.
// CustomerName is the linked customer's ERP native name.
type Address struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	CustomerName string
	Type         AddressType
	Line1        string
	Line2        string
	City         string
	State        string
	PostalCode   string
	Country      string
	Email        string
	Phone        string
}

func (a *Address) ExternalID() string { return a.ID.String() }
func (a *Address) Kind() EntityKind   { return EntityKindAddress }
func (a *Address) Describe() string {
	return fmt.Sprintf("Address %s, %s (%s)", a.Line1, a.City, a.ID)
}

// Category is an internal product category
type Category struct {
	ID         uuid.UUID
	Name       string
	ParentName string
	IsGroup    bool
}

func (c *Category) ExternalID() string { return c.ID.String() }
func (c *Category) Kind() EntityKind   { return EntityKindCategory }
func (c *Category) Describe() string   { return fmt.Sprintf("Category %s (%s)", c.Name, c.ID) }

// Product is an internal product record
type Product struct {
	ID           uuid.UUID
	SKU          string
	Name         string
	Description  string
	CategoryName string
	Unit         string
	Price        decimal.Decimal
	IsStockItem  bool
}

func (p *Product) ExternalID() string { return p.ID.String() }
func (p *Product) Kind() EntityKind   { return EntityKindProduct }
func (p *Product) Describe() string   { return fmt.Sprintf("Product %s (%s)", p.SKU, p.ID) }

// OrderItem is a line on an internal order
type OrderItem struct {
	ProductSKU  string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Order is an internal sales order.
// CustomerName is the ordering customer's ERP native name.
type Order struct {
	ID           uuid.UUID
	OrderNumber  string
	CustomerID   uuid.UUID
	CustomerName string
	Status       string
	Currency     string
	OrderDate    time.Time
	DeliveryDate time.Time
	Items        []OrderItem
}

func (o *Order) ExternalID() string { return o.ID.String() }
func (o *Order) Kind() EntityKind   { return EntityKindOrder }
func (o *Order) Describe() string   { return fmt.Sprintf("Order %s (%s)", o.OrderNumber, o.ID) }

// Payment is an internal payment received against an order.
// OrderName is the order's ERP native name when it is already linked.
type Payment struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	OrderName    string
	PartyName    string
	Amount       decimal.Decimal
	Currency     string
	ExchangeRate decimal.Decimal
	Method       string
	Reference    string
	PaidAt       time.Time
}

func (p *Payment) ExternalID() string { return p.ID.String() }
func (p *Payment) Kind() EntityKind   { return EntityKindPayment }
func (p *Payment) Describe() string {
	return fmt.Sprintf("Payment %s %s (%s)", p.Amount.String(), p.Currency, p.ID)
}

// Details converts the payment to the details used to build a payment entry
func (p *Payment) Details() PaymentDetails {
	return PaymentDetails{
		PaymentID:     p.ExternalID(),
		Amount:        p.Amount,
		Currency:      p.Currency,
		ExchangeRate:  p.ExchangeRate,
		ModeOfPayment: p.Method,
		ReferenceNo:   p.Reference,
		ReferenceDate: p.PaidAt,
		PostingDate:   p.PaidAt,
	}
}

// Interface compliance checks
var (
	_ Record = (*Customer)(nil)
	_ Record = (*Address)(nil)
	_ Record = (*Category)(nil)
	_ Record = (*Product)(nil)
	_ Record = (*Order)(nil)
	_ Record = (*Payment)(nil)
)
