package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisabix/backend/internal/domain/shared"
)

// Payment event type names as stored in the event log
const (
	EventTypePaymentRecorded  = "PaymentRecorded"
	EventTypePaymentCompleted = "PaymentCompleted"
	EventTypePaymentFailed    = "PaymentFailed"
	EventTypePaymentCancelled = "PaymentCancelled"
)

// PaymentRecordedEvent is raised when a new payment is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	PayerID       uuid.UUID       `json:"payer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	Reference     string          `json:"reference,omitempty"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(paymentID, tenantID uuid.UUID, paymentNumber string, invoiceID, payerID uuid.UUID, amount decimal.Decimal, method PaymentMethod, reference string, recordedBy uuid.UUID) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, paymentID, tenantID, recordedBy),
		PaymentNumber:   paymentNumber,
		InvoiceID:       invoiceID,
		PayerID:         payerID,
		Amount:          amount,
		Method:          method,
		Reference:       reference,
	}
}

// PaymentCompletedEvent is raised when a pending payment settles
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	CompletedBy   uuid.UUID       `json:"completed_by"`
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment, completedBy uuid.UUID) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCompleted, AggregateTypePayment, p.AggregateID(), p.TenantID(), completedBy),
		PaymentNumber:   p.PaymentNumber,
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
		CompletedBy:     completedBy,
	}
}

// PaymentFailedEvent is raised when a pending payment fails
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string `json:"payment_number"`
	Reason        string `json:"reason"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(p *Payment, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypePayment, p.AggregateID(), p.TenantID(), uuid.Nil),
		PaymentNumber:   p.PaymentNumber,
		Reason:          reason,
	}
}

// PaymentCancelledEvent is raised when a pending payment is cancelled
type PaymentCancelledEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string    `json:"payment_number"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	Reason        string    `json:"reason,omitempty"`
}

// NewPaymentCancelledEvent creates a new PaymentCancelledEvent
func NewPaymentCancelledEvent(p *Payment, cancelledBy uuid.UUID, reason string) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCancelled, AggregateTypePayment, p.AggregateID(), p.TenantID(), cancelledBy),
		PaymentNumber:   p.PaymentNumber,
		CancelledBy:     cancelledBy,
		Reason:          reason,
	}
}
