package projection

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hisabix/backend/internal/domain/billing"
	"github.com/hisabix/backend/internal/domain/shared"
	"github.com/hisabix/backend/internal/infrastructure/readmodel"
	"github.com/hisabix/backend/internal/infrastructure/subscription"
)

// InvoiceProjection maintains invoice_read_models from the invoice
// category stream. Every write is guarded by the row's
// last_event_version, so duplicate and stale deliveries are no-ops.
type InvoiceProjection struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewInvoiceProjection creates a new invoice projection
func NewInvoiceProjection(db *gorm.DB, logger *zap.Logger) *InvoiceProjection {
	return &InvoiceProjection{db: db, logger: logger}
}

// Handle applies one delivered invoice event to the read model
func (p *InvoiceProjection) Handle(ctx context.Context, event shared.DomainEvent, msg subscription.Message) error {
	switch e := event.(type) {
	case *billing.InvoiceCreatedEvent:
		return p.applyCreated(ctx, e, msg.Revision)
	case *billing.InvoiceLineItemAddedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"line_count":  gorm.Expr("line_count + 1"),
			"subtotal":    gorm.Expr("subtotal + ?", e.Line.LineTotal),
			"vat_amount":  gorm.Expr("vat_amount + ?", e.Line.VATAmount),
			"grand_total": gorm.Expr("grand_total + ?", e.Line.LineTotal.Add(e.Line.VATAmount)),
		})
	case *billing.InvoiceLineItemRemovedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"line_count":  gorm.Expr("line_count - 1"),
			"subtotal":    gorm.Expr("subtotal - ?", e.Line.LineTotal),
			"vat_amount":  gorm.Expr("vat_amount - ?", e.Line.VATAmount),
			"grand_total": gorm.Expr("grand_total - ?", e.Line.LineTotal.Add(e.Line.VATAmount)),
		})
	case *billing.InvoiceApprovedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"status":        string(billing.InvoiceStatusApproved),
			"mushak_number": e.MushakNumber,
		})
	case *billing.InvoicePaidEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"status":      string(billing.InvoiceStatusPaid),
			"payment_ref": e.PaymentRef,
		})
	case *billing.InvoiceCancelledEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"status": string(billing.InvoiceStatusCancelled),
		})
	default:
		return nil
	}
}

func (p *InvoiceProjection) applyCreated(ctx context.Context, e *billing.InvoiceCreatedEvent, revision int64) error {
	row := &readmodel.InvoiceReadModel{
		ID:               e.AggregateID(),
		TenantID:         e.TenantID(),
		InvoiceNumber:    e.InvoiceNumber,
		VendorID:         e.VendorID,
		CustomerID:       e.CustomerID,
		IssueDate:        e.IssueDate,
		Status:           string(billing.InvoiceStatusDraft),
		LastEventVersion: revision,
	}
	// Redelivered creations hit the primary key and are dropped
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (p *InvoiceProjection) update(ctx context.Context, e shared.DomainEvent, revision int64, changes map[string]interface{}) error {
	changes["last_event_version"] = revision

	res := p.db.WithContext(ctx).
		Model(&readmodel.InvoiceReadModel{}).
		Where("id = ? AND last_event_version < ?", e.AggregateID(), revision).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return staleOrMissing(ctx, p.db, &readmodel.InvoiceReadModel{}, e, revision, p.logger)
	}
	return nil
}

// staleOrMissing distinguishes a duplicate delivery (row already past
// this revision, fine) from an out-of-order delivery whose base row has
// not been projected yet (retry later)
func staleOrMissing(ctx context.Context, db *gorm.DB, model interface{}, e shared.DomainEvent, revision int64, logger *zap.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", e.AggregateID()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("read model row for %s %s missing at revision %d", e.AggregateType(), e.AggregateID(), revision)
	}
	logger.Debug("skipping duplicate delivery",
		zap.String("aggregate_id", e.AggregateID().String()),
		zap.String("event_type", e.EventType()),
		zap.Int64("revision", revision),
	)
	return nil
}

// Ensure InvoiceProjection implements subscription.Handler
var _ subscription.Handler = (*InvoiceProjection)(nil)
