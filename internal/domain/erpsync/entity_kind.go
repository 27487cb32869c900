package erpsync

import "strings"

// EntityKind identifies one kind of internal record that is synchronized
type EntityKind string

const (
	EntityKindCustomer EntityKind = "customer"
	EntityKindAddress  EntityKind = "address"
	EntityKindProduct  EntityKind = "product"
	EntityKindCategory EntityKind = "category"
	EntityKindOrder    EntityKind = "order"
	EntityKindPayment  EntityKind = "payment"
)

// ERP document types
const (
	DocTypeCustomer     = "Customer"
	DocTypeAddress      = "Address"
	DocTypeItem         = "Item"
	DocTypeItemGroup    = "Item Group"
	DocTypeSalesOrder   = "Sales Order"
	DocTypePaymentEntry = "Payment Entry"
)

// DefaultEntityKinds is the dependency order used when a caller names no kinds.
// Parents are created before the documents that link to them.
var DefaultEntityKinds = []EntityKind{
	EntityKindCustomer,
	EntityKindAddress,
	EntityKindCategory,
	EntityKindProduct,
	EntityKindOrder,
	EntityKindPayment,
}

// IsValid returns true if the entity kind is known
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityKindCustomer, EntityKindAddress, EntityKindProduct,
		EntityKindCategory, EntityKindOrder, EntityKindPayment:
		return true
	}
	return false
}

// String returns the string representation
func (k EntityKind) String() string {
	return string(k)
}

// DocumentType returns the ERP document type for the kind
func (k EntityKind) DocumentType() string {
	switch k {
	case EntityKindCustomer:
		return DocTypeCustomer
	case EntityKindAddress:
		return DocTypeAddress
	case EntityKindProduct:
		return DocTypeItem
	case EntityKindCategory:
		return DocTypeItemGroup
	case EntityKindOrder:
		return DocTypeSalesOrder
	case EntityKindPayment:
		return DocTypePaymentEntry
	}
	return ""
}

// ParseEntityKind resolves a kind name, case-insensitively and accepting plurals
// ("customers", "categories", "addresses").
func ParseEntityKind(name string) (EntityKind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "categories":
		n = "category"
	case n == "addresses":
		n = "address"
	case strings.HasSuffix(n, "s") && !strings.HasSuffix(n, "ss"):
		n = strings.TrimSuffix(n, "s")
	}
	k := EntityKind(n)
	return k, k.IsValid()
}
