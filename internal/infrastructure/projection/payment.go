package projection

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hisabix/backend/internal/domain/billing"
	"github.com/hisabix/backend/internal/domain/shared"
	"github.com/hisabix/backend/internal/infrastructure/readmodel"
	"github.com/hisabix/backend/internal/infrastructure/subscription"
)

// PaymentProjection maintains payment_read_models from the payment
// category stream
type PaymentProjection struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentProjection creates a new payment projection
func NewPaymentProjection(db *gorm.DB, logger *zap.Logger) *PaymentProjection {
	return &PaymentProjection{db: db, logger: logger}
}

// Handle applies one delivered payment event to the read model
func (p *PaymentProjection) Handle(ctx context.Context, event shared.DomainEvent, msg subscription.Message) error {
	switch e := event.(type) {
	case *billing.PaymentRecordedEvent:
		row := &readmodel.PaymentReadModel{
			ID:               e.AggregateID(),
			TenantID:         e.TenantID(),
			PaymentNumber:    e.PaymentNumber,
			InvoiceID:        e.InvoiceID,
			PayerID:          e.PayerID,
			Amount:           e.Amount,
			Method:           string(e.Method),
			Status:           string(billing.PaymentStatusPending),
			Reference:        e.Reference,
			LastEventVersion: msg.Revision,
		}
		return p.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(row).Error
	case *billing.PaymentCompletedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"status": string(billing.PaymentStatusCompleted),
		})
	case *billing.PaymentFailedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"status":         string(billing.PaymentStatusFailed),
			"failure_reason": e.Reason,
		})
	case *billing.PaymentCancelledEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"status": string(billing.PaymentStatusCancelled),
		})
	default:
		return nil
	}
}

func (p *PaymentProjection) update(ctx context.Context, e shared.DomainEvent, revision int64, changes map[string]interface{}) error {
	changes["last_event_version"] = revision

	res := p.db.WithContext(ctx).
		Model(&readmodel.PaymentReadModel{}).
		Where("id = ? AND last_event_version < ?", e.AggregateID(), revision).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return staleOrMissing(ctx, p.db, &readmodel.PaymentReadModel{}, e, revision, p.logger)
	}
	return nil
}

// Ensure PaymentProjection implements subscription.Handler
var _ subscription.Handler = (*PaymentProjection)(nil)
