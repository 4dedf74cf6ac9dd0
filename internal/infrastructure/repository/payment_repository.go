package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hisabix/backend/internal/domain/billing"
	"github.com/hisabix/backend/internal/infrastructure/eventlog"
	"github.com/hisabix/backend/internal/infrastructure/eventsourcing"
	"github.com/hisabix/backend/internal/infrastructure/readmodel"
)

// PaymentRepository persists Payment aggregates in tenant-scoped event
// streams and issues their document numbers
type PaymentRepository struct {
	events *eventsourcing.Repository[*billing.Payment]
	seq    *readmodel.SequenceGenerator
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(client eventlog.Client, serializer *eventlog.EventSerializer, db *gorm.DB, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{
		events: eventsourcing.NewRepository(client, serializer, func() *billing.Payment { return &billing.Payment{} }, logger),
		seq:    readmodel.NewSequenceGenerator(db),
	}
}

// Save appends the payment's uncommitted events to its stream
func (r *PaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	return r.events.Save(ctx, payment)
}

// GetByID loads a payment by replaying its tenant-scoped stream.
// Returns (nil, nil) when the payment does not exist for this tenant.
func (r *PaymentRepository) GetByID(ctx context.Context, tenantID, paymentID uuid.UUID) (*billing.Payment, error) {
	return r.events.GetByIDForTenant(ctx, tenantID, paymentID)
}

// Exists probes the stream without replaying it
func (r *PaymentRepository) Exists(ctx context.Context, tenantID, paymentID uuid.UUID) (bool, error) {
	return r.events.ExistsForTenant(ctx, tenantID, paymentID)
}

// NextPaymentNumber issues the next payment number for the given date
func (r *PaymentRepository) NextPaymentNumber(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	return r.seq.NextPaymentNumber(ctx, tenantID, date)
}
