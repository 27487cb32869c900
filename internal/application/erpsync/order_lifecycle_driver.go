package erpsync

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/telemetry"
)

// OrderLifecycleDriver advances ERP sales orders as the internal order moves
// through fulfilment, and records payments against them.
// It is bound to one tenant's connector.
type OrderLifecycleDriver struct {
	conn     erpsync.Connector
	links    erpsync.DocumentLinkRepository
	defaults MappingDefaults
	metrics  Metrics
	logger   *zap.Logger
}

// NewOrderLifecycleDriver creates a driver bound to conn.
// links may be nil, in which case orders are always found by external ID.
func NewOrderLifecycleDriver(
	conn erpsync.Connector,
	links erpsync.DocumentLinkRepository,
	defaults MappingDefaults,
	metrics Metrics,
	logger *zap.Logger,
) *OrderLifecycleDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderLifecycleDriver{
		conn:     conn,
		links:    links,
		defaults: defaults,
		metrics:  metricsOrNop(metrics),
		logger:   logger,
	}
}

// UpdateOrderStatus applies the ERP action for the new internal status.
// The order is always re-read first. A draft order is only submitted: the
// mapped action is left for the next status change.
func (d *OrderLifecycleDriver) UpdateOrderStatus(ctx context.Context, orderID, newStatus string) (erpsync.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_lifecycle", "update_status",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, d.conn.TenantID().String()),
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithAttribute(telemetry.SpanAttrOrderStatus, newStatus),
	)
	defer span.End()

	if strings.TrimSpace(newStatus) == "" {
		err := erpsync.NewValidationError(0, "order status is required")
		telemetry.RecordError(span, err)
		return nil, err
	}

	order, err := d.fetchOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	action := erpsync.ActionFor(newStatus)
	if erpsync.IsDraft(order) {
		action = erpsync.ActionSubmit
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrAction, action)

	updated, err := d.conn.InvokeAction(ctx, order, action)
	d.metrics.RecordLifecycleAction(ctx, d.conn.TenantID(), action, err == nil)
	if err != nil {
		telemetry.RecordError(span, err)
		d.logger.Warn("ERP order action failed",
			zap.String("tenant_id", d.conn.TenantID().String()),
			zap.String("order_id", orderID),
			zap.String("action", action),
			zap.Error(err),
		)
		return nil, err
	}

	d.logger.Info("ERP order action applied",
		zap.String("tenant_id", d.conn.TenantID().String()),
		zap.String("order_id", orderID),
		zap.String("native_name", order.NativeName()),
		zap.String("status", newStatus),
		zap.String("action", action),
	)
	return updated, nil
}

// CreatePayment records a payment fully allocated to the order.
// With no party given, the order's customer is used. A payment whose ID
// already exists in the ERP is returned unchanged.
func (d *OrderLifecycleDriver) CreatePayment(
	ctx context.Context,
	orderID, partyID string,
	details erpsync.PaymentDetails,
) (erpsync.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_lifecycle", "create_payment",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, d.conn.TenantID().String()),
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, details.Amount.String()),
	)
	defer span.End()

	if err := details.Validate(); err != nil {
		verr := &erpsync.Error{Kind: erpsync.ErrorKindValidation, Message: err.Error(), Err: err}
		telemetry.RecordError(span, verr)
		return nil, verr
	}

	if details.PaymentID != "" {
		existing, err := d.conn.FindByExternalID(ctx, erpsync.DocTypePaymentEntry, details.PaymentID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	orderName, err := d.resolveOrderName(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if partyID == "" {
		order, err := d.conn.Get(ctx, erpsync.DocTypeSalesOrder, orderName)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		partyID = order.String("customer")
		if partyID == "" {
			err := erpsync.NewValidationError(0, "payment party is required")
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	entry := BuildPaymentEntry(orderName, partyID, details, d.defaults)
	created, err := d.conn.Create(ctx, erpsync.DocTypePaymentEntry, entry)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if details.PaymentID != "" && d.links != nil {
		link := &erpsync.DocumentLink{
			TenantID:     d.conn.TenantID(),
			Kind:         erpsync.EntityKindPayment,
			ExternalID:   details.PaymentID,
			DocumentType: erpsync.DocTypePaymentEntry,
			NativeName:   created.Name,
			CreatedAt:    time.Now(),
		}
		if err := d.links.Save(ctx, link); err != nil {
			d.logger.Warn("Failed to store payment link",
				zap.String("payment_id", details.PaymentID),
				zap.Error(err),
			)
		}
	}

	d.logger.Info("ERP payment entry created",
		zap.String("tenant_id", d.conn.TenantID().String()),
		zap.String("order_id", orderID),
		zap.String("native_name", created.Name),
		zap.String("amount", details.Amount.String()),
		zap.String("currency", details.Currency),
	)
	return created.Raw, nil
}

// fetchOrder resolves and re-reads the order. A stale stored link falls back
// to a lookup by external ID.
func (d *OrderLifecycleDriver) fetchOrder(ctx context.Context, orderID string) (erpsync.Document, error) {
	name, fromLink, err := d.lookupOrderName(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order, err := d.conn.Get(ctx, erpsync.DocTypeSalesOrder, name)
	if err != nil && fromLink && erpsync.IsNotFound(err) {
		doc, ferr := d.conn.FindByExternalID(ctx, erpsync.DocTypeSalesOrder, orderID)
		if ferr != nil {
			return nil, ferr
		}
		if doc == nil {
			return nil, err
		}
		order, err = d.conn.Get(ctx, erpsync.DocTypeSalesOrder, doc.NativeName())
	}
	if err != nil {
		return nil, err
	}

	if order.String(erpsync.DocTypeField) == "" {
		order = order.Clone()
		order[erpsync.DocTypeField] = erpsync.DocTypeSalesOrder
	}
	return order, nil
}

func (d *OrderLifecycleDriver) resolveOrderName(ctx context.Context, orderID string) (string, error) {
	name, _, err := d.lookupOrderName(ctx, orderID)
	return name, err
}

// lookupOrderName returns the order's native name from the link store, or by
// external ID when no link is stored.
func (d *OrderLifecycleDriver) lookupOrderName(ctx context.Context, orderID string) (string, bool, error) {
	if d.links != nil {
		name, err := d.links.FindNativeName(ctx, d.conn.TenantID(), erpsync.EntityKindOrder, orderID)
		if err != nil {
			d.logger.Warn("Document link lookup failed",
				zap.String("order_id", orderID),
				zap.Error(err),
			)
		} else if name != "" {
			return name, true, nil
		}
	}

	doc, err := d.conn.FindByExternalID(ctx, erpsync.DocTypeSalesOrder, orderID)
	if err != nil {
		return "", false, err
	}
	if doc == nil || doc.NativeName() == "" {
		return "", false, erpsync.NewNotFoundError("sales order for order " + orderID + " not found")
	}
	return doc.NativeName(), false, nil
}
