package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/hisabix/backend/internal/domain/shared"
)

// Invoice event type names as stored in the event log
const (
	EventTypeInvoiceCreated         = "InvoiceCreated"
	EventTypeInvoiceLineItemAdded   = "InvoiceLineItemAdded"
	EventTypeInvoiceLineItemRemoved = "InvoiceLineItemRemoved"
	EventTypeInvoiceApproved        = "InvoiceApproved"
	EventTypeInvoicePaid            = "InvoicePaid"
	EventTypeInvoiceCancelled       = "InvoiceCancelled"
)

// InvoiceCreatedEvent is raised when a new draft invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string    `json:"invoice_number"`
	VendorID      uuid.UUID `json:"vendor_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	IssueDate     time.Time `json:"issue_date"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(invoiceID, tenantID uuid.UUID, invoiceNumber string, vendorID, customerID uuid.UUID, issueDate time.Time, createdBy uuid.UUID) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, invoiceID, tenantID, createdBy),
		InvoiceNumber:   invoiceNumber,
		VendorID:        vendorID,
		CustomerID:      customerID,
		IssueDate:       issueDate,
	}
}

// InvoiceLineItemAddedEvent is raised when a line item is added to a draft invoice
type InvoiceLineItemAddedEvent struct {
	shared.BaseDomainEvent
	Line InvoiceLine `json:"line"`
}

// NewInvoiceLineItemAddedEvent creates a new InvoiceLineItemAddedEvent
func NewInvoiceLineItemAddedEvent(inv *Invoice, line InvoiceLine, addedBy uuid.UUID) *InvoiceLineItemAddedEvent {
	return &InvoiceLineItemAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceLineItemAdded, AggregateTypeInvoice, inv.AggregateID(), inv.TenantID(), addedBy),
		Line:            line,
	}
}

// InvoiceLineItemRemovedEvent is raised when a line item is removed
// from a draft invoice. The removed line is carried in full so
// downstream projections can adjust totals without replaying the stream.
type InvoiceLineItemRemovedEvent struct {
	shared.BaseDomainEvent
	LineID uuid.UUID   `json:"line_id"`
	Line   InvoiceLine `json:"line"`
}

// NewInvoiceLineItemRemovedEvent creates a new InvoiceLineItemRemovedEvent
func NewInvoiceLineItemRemovedEvent(inv *Invoice, line InvoiceLine, removedBy uuid.UUID) *InvoiceLineItemRemovedEvent {
	return &InvoiceLineItemRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceLineItemRemoved, AggregateTypeInvoice, inv.AggregateID(), inv.TenantID(), removedBy),
		LineID:          line.LineID,
		Line:            line,
	}
}

// InvoiceApprovedEvent is raised when a draft invoice is approved and
// its mushak number assigned
type InvoiceApprovedEvent struct {
	shared.BaseDomainEvent
	ApprovedBy   uuid.UUID `json:"approved_by"`
	MushakNumber string    `json:"mushak_number"`
}

// NewInvoiceApprovedEvent creates a new InvoiceApprovedEvent
func NewInvoiceApprovedEvent(inv *Invoice, approvedBy uuid.UUID, mushakNumber string) *InvoiceApprovedEvent {
	return &InvoiceApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceApproved, AggregateTypeInvoice, inv.AggregateID(), inv.TenantID(), approvedBy),
		ApprovedBy:      approvedBy,
		MushakNumber:    mushakNumber,
	}
}

// InvoicePaidEvent is raised when an external payment settles the invoice
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	PaymentRef string `json:"payment_ref"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice, paymentRef string) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.AggregateID(), inv.TenantID(), uuid.Nil),
		PaymentRef:      paymentRef,
	}
}

// InvoiceCancelledEvent is raised when an invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason"`
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice, cancelledBy uuid.UUID, reason string) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.AggregateID(), inv.TenantID(), cancelledBy),
		CancelledBy:     cancelledBy,
		Reason:          reason,
	}
}
