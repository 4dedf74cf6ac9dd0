package projection

import (
	"github.com/hisabix/backend/internal/domain/billing"
	"github.com/hisabix/backend/internal/domain/ledger"
	"github.com/hisabix/backend/internal/infrastructure/eventlog"
)

// RegisterDomainEvents registers every domain event type with the
// serializer. Both the repositories and the subscription consumers need
// the full registry.
func RegisterDomainEvents(s *eventlog.EventSerializer) {
	// Invoice
	s.Register(billing.EventTypeInvoiceCreated, &billing.InvoiceCreatedEvent{})
	s.Register(billing.EventTypeInvoiceLineItemAdded, &billing.InvoiceLineItemAddedEvent{})
	s.Register(billing.EventTypeInvoiceLineItemRemoved, &billing.InvoiceLineItemRemovedEvent{})
	s.Register(billing.EventTypeInvoiceApproved, &billing.InvoiceApprovedEvent{})
	s.Register(billing.EventTypeInvoicePaid, &billing.InvoicePaidEvent{})
	s.Register(billing.EventTypeInvoiceCancelled, &billing.InvoiceCancelledEvent{})

	// Payment
	s.Register(billing.EventTypePaymentRecorded, &billing.PaymentRecordedEvent{})
	s.Register(billing.EventTypePaymentCompleted, &billing.PaymentCompletedEvent{})
	s.Register(billing.EventTypePaymentFailed, &billing.PaymentFailedEvent{})
	s.Register(billing.EventTypePaymentCancelled, &billing.PaymentCancelledEvent{})

	// Journal entry
	s.Register(ledger.EventTypeJournalEntryCreated, &ledger.JournalEntryCreatedEvent{})
	s.Register(ledger.EventTypeJournalLineAdded, &ledger.JournalLineAddedEvent{})
	s.Register(ledger.EventTypeJournalEntryPosted, &ledger.JournalEntryPostedEvent{})
	s.Register(ledger.EventTypeJournalEntryReversed, &ledger.JournalEntryReversedEvent{})

	// Chart of accounts
	s.Register(ledger.EventTypeAccountCreated, &ledger.AccountCreatedEvent{})
	s.Register(ledger.EventTypeAccountRenamed, &ledger.AccountRenamedEvent{})
	s.Register(ledger.EventTypeAccountDeactivated, &ledger.AccountDeactivatedEvent{})
	s.Register(ledger.EventTypeAccountReactivated, &ledger.AccountReactivatedEvent{})
}
