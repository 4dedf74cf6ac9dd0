package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisabix/backend/internal/domain/shared"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

// Supported payment methods
const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodMobile       PaymentMethod = "MOBILE_BANKING"
	PaymentMethodCard         PaymentMethod = "CARD"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodMobile, PaymentMethodCard:
		return true
	}
	return false
}

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

// Payment lifecycle: PENDING -> COMPLETED | FAILED, cancellation allowed
// while PENDING. COMPLETED, FAILED and CANCELLED are terminal.
const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// ErrInvalidPaymentStatus is returned when a transition is not allowed
// from the payment's current status
var ErrInvalidPaymentStatus = shared.NewDomainError("INVALID_PAYMENT_STATUS", "Operation not allowed in current payment status")

// AggregateTypePayment is the stream category for payments
const AggregateTypePayment = "payment"

// Payment is an event-sourced aggregate recording money received
// against an invoice
type Payment struct {
	shared.EventSourcedAggregate
	tenantID      uuid.UUID
	PaymentNumber string
	InvoiceID     uuid.UUID
	PayerID       uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	Reference     string
	Status        PaymentStatus
	ReceivedAt    time.Time
	CompletedAt   *time.Time
	FailureReason string
}

// AggregateType returns the aggregate type used in stream names
func (p *Payment) AggregateType() string {
	return AggregateTypePayment
}

// TenantID returns the owning tenant, set at creation
func (p *Payment) TenantID() uuid.UUID {
	return p.tenantID
}

// NewPayment records a new pending payment and raises PaymentRecorded
func NewPayment(tenantID uuid.UUID, paymentNumber string, invoiceID, payerID uuid.UUID, amount decimal.Decimal, method PaymentMethod, reference string, recordedBy uuid.UUID) (*Payment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	p := &Payment{}
	shared.Raise(p, NewPaymentRecordedEvent(uuid.New(), tenantID, paymentNumber, invoiceID, payerID, amount, method, reference, recordedBy))
	return p, nil
}

// Complete marks a pending payment as settled
func (p *Payment) Complete(completedBy uuid.UUID) error {
	if p.Status != PaymentStatusPending {
		return ErrInvalidPaymentStatus
	}
	shared.Raise(p, NewPaymentCompletedEvent(p, completedBy))
	return nil
}

// Fail marks a pending payment as failed (bounced cheque, reversed
// transfer)
func (p *Payment) Fail(reason string) error {
	if p.Status != PaymentStatusPending {
		return ErrInvalidPaymentStatus
	}
	shared.Raise(p, NewPaymentFailedEvent(p, reason))
	return nil
}

// Cancel cancels a pending payment
func (p *Payment) Cancel(cancelledBy uuid.UUID, reason string) error {
	if p.Status != PaymentStatusPending {
		return ErrInvalidPaymentStatus
	}
	if cancelledBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Cancelling user ID is required")
	}
	shared.Raise(p, NewPaymentCancelledEvent(p, cancelledBy, reason))
	return nil
}

// Apply transitions payment state for a single event during replay
func (p *Payment) Apply(event shared.DomainEvent) {
	switch e := event.(type) {
	case *PaymentRecordedEvent:
		p.SetAggregateID(e.AggregateID())
		p.tenantID = e.TenantID()
		p.PaymentNumber = e.PaymentNumber
		p.InvoiceID = e.InvoiceID
		p.PayerID = e.PayerID
		p.Amount = e.Amount
		p.Method = e.Method
		p.Reference = e.Reference
		p.Status = PaymentStatusPending
		p.ReceivedAt = e.OccurredAt()
	case *PaymentCompletedEvent:
		p.Status = PaymentStatusCompleted
		completedAt := e.OccurredAt()
		p.CompletedAt = &completedAt
	case *PaymentFailedEvent:
		p.Status = PaymentStatusFailed
		p.FailureReason = e.Reason
	case *PaymentCancelledEvent:
		p.Status = PaymentStatusCancelled
	}
}

// Ensure Payment implements the aggregate contracts
var (
	_ shared.AggregateRoot = (*Payment)(nil)
	_ shared.TenantOwned   = (*Payment)(nil)
)
