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

// InvoiceRepository persists Invoice aggregates in tenant-scoped event
// streams and issues their document numbers
type InvoiceRepository struct {
	events *eventsourcing.Repository[*billing.Invoice]
	seq    *readmodel.SequenceGenerator
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(client eventlog.Client, serializer *eventlog.EventSerializer, db *gorm.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		events: eventsourcing.NewRepository(client, serializer, func() *billing.Invoice { return &billing.Invoice{} }, logger),
		seq:    readmodel.NewSequenceGenerator(db),
	}
}

// Save appends the invoice's uncommitted events to its stream
func (r *InvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return r.events.Save(ctx, invoice)
}

// GetByID loads an invoice by replaying its tenant-scoped stream.
// Returns (nil, nil) when the invoice does not exist for this tenant.
func (r *InvoiceRepository) GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billing.Invoice, error) {
	return r.events.GetByIDForTenant(ctx, tenantID, invoiceID)
}

// Exists probes the stream without replaying it
func (r *InvoiceRepository) Exists(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error) {
	return r.events.ExistsForTenant(ctx, tenantID, invoiceID)
}

// NextInvoiceNumber issues the next invoice number for the issue date
func (r *InvoiceRepository) NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	return r.seq.NextInvoiceNumber(ctx, tenantID, date)
}

// NextMushakNumber issues the next VAT challan number, assigned to an
// invoice at approval
func (r *InvoiceRepository) NextMushakNumber(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	return r.seq.NextMushakNumber(ctx, tenantID, date)
}
