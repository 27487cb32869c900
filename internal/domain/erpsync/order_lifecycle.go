package erpsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// ---------------------------------------------------------------------------
// Order status mapping
// ---------------------------------------------------------------------------

// Internal order statuses that map onto ERP workflow actions
const (
	OrderStatusPacked    = "PACKED"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// ERP workflow actions
const (
	ActionSubmit  = "Submit"
	ActionPack    = "Pack"
	ActionShip    = "Ship"
	ActionDeliver = "Deliver"
	ActionCancel  = "Cancel"
)

var statusActions = map[string]string{
	OrderStatusPacked:    ActionPack,
	OrderStatusShipped:   ActionShip,
	OrderStatusDelivered: ActionDeliver,
	OrderStatusCancelled: ActionCancel,
}

// ActionFor returns the ERP action for an internal order status.
// Unrecognized statuses are returned verbatim as the action name.
func ActionFor(status string) string {
	if action, ok := statusActions[strings.ToUpper(strings.TrimSpace(status))]; ok {
		return action
	}
	return status
}

// ---------------------------------------------------------------------------
// ERP document state
// ---------------------------------------------------------------------------

// DocumentState is the lifecycle state of an ERP document
type DocumentState string

const (
	DocumentStateDraft     DocumentState = "Draft"
	DocumentStateSubmitted DocumentState = "Submitted"
	DocumentStateCancelled DocumentState = "Cancelled"
)

// StateOf derives the lifecycle state from a fetched document.
// The status label wins; docstatus is the fallback when no label is present.
func StateOf(doc Document) DocumentState {
	if status := doc.String(StatusField); status != "" {
		return DocumentState(status)
	}
	if ds, ok := doc.Int(DocStatusField); ok {
		switch ds {
		case 0:
			return DocumentStateDraft
		case 1:
			return DocumentStateSubmitted
		case 2:
			return DocumentStateCancelled
		}
	}
	return ""
}

// IsDraft reports whether the document is still a draft
func IsDraft(doc Document) bool {
	return StateOf(doc) == DocumentStateDraft
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

// PaymentDetails describes a payment received against an order.
// No cross-currency conversion is modeled: the single exchange rate is used
// for both source and target.
type PaymentDetails struct {
	PaymentID     string
	Amount        decimal.Decimal
	Currency      string
	ExchangeRate  decimal.Decimal
	ModeOfPayment string
	ReferenceNo   string
	ReferenceDate time.Time
	PostingDate   time.Time
}

// Validate checks amount, currency and exchange rate
func (p *PaymentDetails) Validate() error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	if _, err := currency.ParseISO(p.Currency); err != nil {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidPayment, p.Currency)
	}
	if p.ExchangeRate.IsNegative() {
		return fmt.Errorf("%w: exchange rate cannot be negative", ErrInvalidPayment)
	}
	return nil
}

// EffectiveExchangeRate returns the exchange rate, defaulting to 1
func (p *PaymentDetails) EffectiveExchangeRate() decimal.Decimal {
	if p.ExchangeRate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return p.ExchangeRate
}
