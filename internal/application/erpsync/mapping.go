package erpsync

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// ERP date format for transaction, delivery and posting dates
const erpDateFormat = "2006-01-02"

// Root groups used when neither the record nor the tenant names one
const (
	DefaultCustomerGroup = "All Customer Groups"
	DefaultTerritory     = "All Territories"
	DefaultItemGroup     = "All Item Groups"
	DefaultStockUOM      = "Nos"
)

// MappingDefaults fills document fields the internal records do not carry
type MappingDefaults struct {
	CustomerGroup string
	Territory     string
	Company       string
	Warehouse     string
	ItemGroup     string
	StockUOM      string
	Currency      string
}

// DefaultMappingDefaults returns the ERP root groups
func DefaultMappingDefaults() MappingDefaults {
	return MappingDefaults{
		CustomerGroup: DefaultCustomerGroup,
		Territory:     DefaultTerritory,
		ItemGroup:     DefaultItemGroup,
		StockUOM:      DefaultStockUOM,
	}
}

// WithTenant overlays the tenant's configured defaults
func (d MappingDefaults) WithTenant(cfg *erpsync.ERPConfig) MappingDefaults {
	if cfg == nil {
		return d
	}
	if cfg.DefaultCustomerGroup != "" {
		d.CustomerGroup = cfg.DefaultCustomerGroup
	}
	if cfg.DefaultTerritory != "" {
		d.Territory = cfg.DefaultTerritory
	}
	if cfg.Company != "" {
		d.Company = cfg.Company
	}
	if cfg.DefaultWarehouse != "" {
		d.Warehouse = cfg.DefaultWarehouse
	}
	return d
}

// ---------------------------------------------------------------------------
// Entity mappers
// ---------------------------------------------------------------------------

// MapCustomer maps a customer to a Customer document
func MapCustomer(c *erpsync.Customer, d MappingDefaults) erpsync.Document {
	customerType := "Individual"
	if c.Type == erpsync.CustomerTypeCompany {
		customerType = "Company"
	}
	doc := erpsync.Document{
		erpsync.ExternalIDField: c.ExternalID(),
		"customer_name":         c.Name,
		"customer_type":         customerType,
		"customer_group":        d.CustomerGroup,
		"territory":             d.Territory,
	}
	setIfPresent(doc, "email_id", c.Email)
	setIfPresent(doc, "mobile_no", c.Phone)
	return doc
}

// MapAddress maps a customer address to an Address document linked to its customer
func MapAddress(a *erpsync.Address, _ MappingDefaults) erpsync.Document {
	addressType := "Billing"
	if a.Type == erpsync.AddressTypeShipping {
		addressType = "Shipping"
	}
	title := a.CustomerName
	if title == "" {
		title = a.Line1
	}
	doc := erpsync.Document{
		erpsync.ExternalIDField: a.ExternalID(),
		"address_title":         title,
		"address_type":          addressType,
		"address_line1":         a.Line1,
		"city":                  a.City,
		"country":               a.Country,
	}
	setIfPresent(doc, "address_line2", a.Line2)
	setIfPresent(doc, "state", a.State)
	setIfPresent(doc, "pincode", a.PostalCode)
	setIfPresent(doc, "email_id", a.Email)
	setIfPresent(doc, "phone", a.Phone)
	if a.CustomerName != "" {
		doc["links"] = []map[string]any{{
			"link_doctype": erpsync.DocTypeCustomer,
			"link_name":    a.CustomerName,
		}}
	}
	return doc
}

// MapCategory maps a product category to an Item Group document
func MapCategory(c *erpsync.Category, d MappingDefaults) erpsync.Document {
	parent := c.ParentName
	if parent == "" {
		parent = d.ItemGroup
	}
	return erpsync.Document{
		erpsync.ExternalIDField: c.ExternalID(),
		"item_group_name":       c.Name,
		"parent_item_group":     parent,
		"is_group":              flag(c.IsGroup),
	}
}

// MapProduct maps a product to an Item document keyed by SKU
func MapProduct(p *erpsync.Product, d MappingDefaults) erpsync.Document {
	group := p.CategoryName
	if group == "" {
		group = d.ItemGroup
	}
	uom := p.Unit
	if uom == "" {
		uom = d.StockUOM
	}
	doc := erpsync.Document{
		erpsync.ExternalIDField: p.ExternalID(),
		"item_code":             p.SKU,
		"item_name":             p.Name,
		"item_group":            group,
		"stock_uom":             uom,
		"is_stock_item":         flag(p.IsStockItem),
		"standard_rate":         number(p.Price),
	}
	setIfPresent(doc, "description", p.Description)
	return doc
}

// MapOrder maps an order and its lines to a Sales Order document.
// The delivery date falls back to the order date.
func MapOrder(o *erpsync.Order, d MappingDefaults) erpsync.Document {
	delivery := o.DeliveryDate
	if delivery.IsZero() {
		delivery = o.OrderDate
	}

	items := make([]map[string]any, 0, len(o.Items))
	for _, line := range o.Items {
		item := map[string]any{
			"item_code":     line.ProductSKU,
			"qty":           number(line.Quantity),
			"rate":          number(line.UnitPrice),
			"delivery_date": formatDate(delivery),
		}
		if line.ProductName != "" {
			item["item_name"] = line.ProductName
		}
		if d.Warehouse != "" {
			item["warehouse"] = d.Warehouse
		}
		items = append(items, item)
	}

	doc := erpsync.Document{
		erpsync.ExternalIDField: o.ExternalID(),
		"customer":              o.CustomerName,
		"transaction_date":      formatDate(o.OrderDate),
		"delivery_date":         formatDate(delivery),
		"po_no":                 o.OrderNumber,
		"items":                 items,
	}
	setIfPresent(doc, "company", d.Company)
	currency := o.Currency
	if currency == "" {
		currency = d.Currency
	}
	setIfPresent(doc, "currency", currency)
	return doc
}

// MapPayment maps a recorded payment to a Payment Entry against its order
func MapPayment(p *erpsync.Payment, d MappingDefaults) erpsync.Document {
	return BuildPaymentEntry(p.OrderName, p.PartyName, p.Details(), d)
}

// BuildPaymentEntry builds a receive-type Payment Entry fully allocated to one Sales Order.
// Paid, received and allocated amounts are equal, and source and target share
// one currency and one exchange rate.
func BuildPaymentEntry(orderName, partyID string, details erpsync.PaymentDetails, d MappingDefaults) erpsync.Document {
	amount := number(details.Amount)
	rate := number(details.EffectiveExchangeRate())

	doc := erpsync.Document{
		erpsync.DocTypeField:         erpsync.DocTypePaymentEntry,
		"payment_type":               "Receive",
		"party_type":                 erpsync.DocTypeCustomer,
		"party":                      partyID,
		"paid_amount":                amount,
		"received_amount":            amount,
		"paid_from_account_currency": details.Currency,
		"paid_to_account_currency":   details.Currency,
		"currency":                   details.Currency,
		"source_exchange_rate":       rate,
		"target_exchange_rate":       rate,
		"references": []map[string]any{{
			"reference_doctype": erpsync.DocTypeSalesOrder,
			"reference_name":    orderName,
			"allocated_amount":  amount,
		}},
	}
	setIfPresent(doc, erpsync.ExternalIDField, details.PaymentID)
	setIfPresent(doc, "company", d.Company)
	setIfPresent(doc, "mode_of_payment", details.ModeOfPayment)
	setIfPresent(doc, "reference_no", details.ReferenceNo)
	if !details.PostingDate.IsZero() {
		doc["posting_date"] = formatDate(details.PostingDate)
	}
	if !details.ReferenceDate.IsZero() {
		doc["reference_date"] = formatDate(details.ReferenceDate)
	}
	return doc
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// number encodes a decimal as an exact JSON number
func number(v decimal.Decimal) json.Number {
	return json.Number(v.String())
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(erpDateFormat)
}

func setIfPresent(doc erpsync.Document, field, value string) {
	if value != "" {
		doc[field] = value
	}
}
