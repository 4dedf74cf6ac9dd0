package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisabix/backend/internal/domain/shared"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

// Invoice lifecycle: DRAFT -> APPROVED -> PAID, with cancellation
// allowed from DRAFT and APPROVED. PAID and CANCELLED are terminal.
const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusApproved  InvoiceStatus = "APPROVED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// CanApprove reports whether an invoice in this status may be approved
func (s InvoiceStatus) CanApprove() bool {
	return s == InvoiceStatusDraft
}

// CanCancel reports whether an invoice in this status may be cancelled
func (s InvoiceStatus) CanCancel() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusApproved
}

// IsTerminal reports whether the status admits no further transitions
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// ErrInvalidInvoiceStatus is returned when a transition is not allowed
// from the invoice's current status
var ErrInvalidInvoiceStatus = shared.NewDomainError("INVALID_INVOICE_STATUS", "Operation not allowed in current invoice status")

// InvoiceLine is a single billed line on an invoice
type InvoiceLine struct {
	LineID      uuid.UUID       `json:"line_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATCategory VATCategory     `json:"vat_category"`
	LineTotal   decimal.Decimal `json:"line_total"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
}

// Invoice is an event-sourced aggregate recording a VAT invoice issued
// by a vendor to a customer. All state changes are captured as domain
// events; the struct fields are only the replayed projection of those
// events.
type Invoice struct {
	shared.EventSourcedAggregate
	tenantID      uuid.UUID
	InvoiceNumber string
	MushakNumber  string
	VendorID      uuid.UUID
	CustomerID    uuid.UUID
	IssueDate     time.Time
	Status        InvoiceStatus
	Lines         []InvoiceLine
	Subtotal      decimal.Decimal
	VATAmount     decimal.Decimal
	GrandTotal    decimal.Decimal
	ApprovedBy    *uuid.UUID
	ApprovedAt    *time.Time
	CancelledBy   *uuid.UUID
	CancelledAt   *time.Time
	CancelReason  string
	PaidAt        *time.Time
	PaymentRef    string
}

// AggregateTypeInvoice is the stream category for invoices
const AggregateTypeInvoice = "invoice"

// AggregateType returns the aggregate type used in stream names
func (inv *Invoice) AggregateType() string {
	return AggregateTypeInvoice
}

// TenantID returns the owning tenant, set at creation
func (inv *Invoice) TenantID() uuid.UUID {
	return inv.tenantID
}

// NewInvoice creates a new draft invoice and raises InvoiceCreated
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, vendorID, customerID uuid.UUID, issueDate time.Time, createdBy uuid.UUID) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if vendorID == uuid.Nil || customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Vendor and customer IDs are required")
	}
	if issueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}

	inv := &Invoice{}
	shared.Raise(inv, NewInvoiceCreatedEvent(uuid.New(), tenantID, invoiceNumber, vendorID, customerID, issueDate, createdBy))
	return inv, nil
}

// AddLineItem adds a billed line to a draft invoice and recomputes totals
func (inv *Invoice) AddLineItem(description string, quantity, unitPrice decimal.Decimal, vatCategory VATCategory, addedBy uuid.UUID) error {
	if inv.Status != InvoiceStatusDraft {
		return ErrInvalidInvoiceStatus
	}
	if description == "" {
		return shared.NewDomainError("INVALID_LINE_ITEM", "Line description cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_LINE_ITEM", "Quantity must be positive")
	}
	if unitPrice.LessThan(decimal.Zero) {
		return shared.NewDomainError("INVALID_LINE_ITEM", "Unit price cannot be negative")
	}
	if !vatCategory.IsValid() {
		return shared.NewDomainError("INVALID_VAT_CATEGORY", fmt.Sprintf("Unknown VAT category %q", vatCategory))
	}

	lineTotal := quantity.Mul(unitPrice)
	vatAmount := lineTotal.Mul(vatCategory.Rate())
	line := InvoiceLine{
		LineID:      uuid.New(),
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		VATCategory: vatCategory,
		LineTotal:   lineTotal,
		VATAmount:   vatAmount,
	}
	shared.Raise(inv, NewInvoiceLineItemAddedEvent(inv, line, addedBy))
	return nil
}

// RemoveLineItem removes a line from a draft invoice
func (inv *Invoice) RemoveLineItem(lineID uuid.UUID, removedBy uuid.UUID) error {
	if inv.Status != InvoiceStatusDraft {
		return ErrInvalidInvoiceStatus
	}
	for _, line := range inv.Lines {
		if line.LineID == lineID {
			shared.Raise(inv, NewInvoiceLineItemRemovedEvent(inv, line, removedBy))
			return nil
		}
	}
	return shared.NewDomainError("LINE_ITEM_NOT_FOUND", "Line item does not exist on this invoice")
}

// Approve approves a draft invoice and assigns its mushak number. Only
// valid from DRAFT; the mushak number is issued by the caller via the
// sequence service.
func (inv *Invoice) Approve(approvedBy uuid.UUID, mushakNumber string) error {
	if !inv.Status.CanApprove() {
		return ErrInvalidInvoiceStatus
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Approving user ID is required")
	}
	if len(inv.Lines) == 0 {
		return shared.NewDomainError("EMPTY_INVOICE", "Cannot approve an invoice without line items")
	}
	if mushakNumber == "" {
		return shared.NewDomainError("INVALID_MUSHAK_NUMBER", "Mushak number is required for approval")
	}
	shared.Raise(inv, NewInvoiceApprovedEvent(inv, approvedBy, mushakNumber))
	return nil
}

// MarkPaid records an external payment settling the invoice. Only valid
// from APPROVED.
func (inv *Invoice) MarkPaid(paymentRef string) error {
	if inv.Status != InvoiceStatusApproved {
		return ErrInvalidInvoiceStatus
	}
	shared.Raise(inv, NewInvoicePaidEvent(inv, paymentRef))
	return nil
}

// Cancel cancels the invoice. Invalid once PAID or CANCELLED.
func (inv *Invoice) Cancel(cancelledBy uuid.UUID, reason string) error {
	if !inv.Status.CanCancel() {
		return ErrInvalidInvoiceStatus
	}
	if cancelledBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Cancelling user ID is required")
	}
	shared.Raise(inv, NewInvoiceCancelledEvent(inv, cancelledBy, reason))
	return nil
}

// Apply transitions invoice state for a single event during replay
func (inv *Invoice) Apply(event shared.DomainEvent) {
	switch e := event.(type) {
	case *InvoiceCreatedEvent:
		inv.SetAggregateID(e.AggregateID())
		inv.tenantID = e.TenantID()
		inv.InvoiceNumber = e.InvoiceNumber
		inv.VendorID = e.VendorID
		inv.CustomerID = e.CustomerID
		inv.IssueDate = e.IssueDate
		inv.Status = InvoiceStatusDraft
		inv.Subtotal = decimal.Zero
		inv.VATAmount = decimal.Zero
		inv.GrandTotal = decimal.Zero
	case *InvoiceLineItemAddedEvent:
		inv.Lines = append(inv.Lines, e.Line)
		inv.recomputeTotals()
	case *InvoiceLineItemRemovedEvent:
		lines := inv.Lines[:0]
		for _, line := range inv.Lines {
			if line.LineID != e.LineID {
				lines = append(lines, line)
			}
		}
		inv.Lines = lines
		inv.recomputeTotals()
	case *InvoiceApprovedEvent:
		inv.Status = InvoiceStatusApproved
		inv.MushakNumber = e.MushakNumber
		approvedBy := e.ApprovedBy
		approvedAt := e.OccurredAt()
		inv.ApprovedBy = &approvedBy
		inv.ApprovedAt = &approvedAt
	case *InvoicePaidEvent:
		inv.Status = InvoiceStatusPaid
		paidAt := e.OccurredAt()
		inv.PaidAt = &paidAt
		inv.PaymentRef = e.PaymentRef
	case *InvoiceCancelledEvent:
		inv.Status = InvoiceStatusCancelled
		cancelledBy := e.CancelledBy
		cancelledAt := e.OccurredAt()
		inv.CancelledBy = &cancelledBy
		inv.CancelledAt = &cancelledAt
		inv.CancelReason = e.Reason
	}
}

// recomputeTotals rebuilds subtotal, VAT and grand total from the lines
func (inv *Invoice) recomputeTotals() {
	subtotal := decimal.Zero
	vat := decimal.Zero
	for _, line := range inv.Lines {
		subtotal = subtotal.Add(line.LineTotal)
		vat = vat.Add(line.VATAmount)
	}
	inv.Subtotal = subtotal
	inv.VATAmount = vat
	inv.GrandTotal = subtotal.Add(vat)
}

// Ensure Invoice implements the aggregate contracts
var (
	_ shared.AggregateRoot = (*Invoice)(nil)
	_ shared.TenantOwned   = (*Invoice)(nil)
)
