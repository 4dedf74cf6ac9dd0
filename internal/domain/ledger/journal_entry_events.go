package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisabix/backend/internal/domain/shared"
)

// Journal entry event type names as stored in the event log
const (
	EventTypeJournalEntryCreated  = "JournalEntryCreated"
	EventTypeJournalLineAdded     = "JournalLineAdded"
	EventTypeJournalEntryPosted   = "JournalEntryPosted"
	EventTypeJournalEntryReversed = "JournalEntryReversed"
)

// JournalEntryCreatedEvent is raised when a new draft journal entry is created
type JournalEntryCreatedEvent struct {
	shared.BaseDomainEvent
	EntryNumber string      `json:"entry_number"`
	JournalType JournalType `json:"journal_type"`
	EntryDate   time.Time   `json:"entry_date"`
	Description string      `json:"description,omitempty"`
}

// NewJournalEntryCreatedEvent creates a new JournalEntryCreatedEvent
func NewJournalEntryCreatedEvent(entryID, tenantID uuid.UUID, entryNumber string, journalType JournalType, entryDate time.Time, description string, createdBy uuid.UUID) *JournalEntryCreatedEvent {
	return &JournalEntryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryCreated, AggregateTypeJournalEntry, entryID, tenantID, createdBy),
		EntryNumber:     entryNumber,
		JournalType:     journalType,
		EntryDate:       entryDate,
		Description:     description,
	}
}

// JournalLineAddedEvent is raised when a debit or credit leg is added
type JournalLineAddedEvent struct {
	shared.BaseDomainEvent
	Line JournalLine `json:"line"`
}

// NewJournalLineAddedEvent creates a new JournalLineAddedEvent
func NewJournalLineAddedEvent(je *JournalEntry, line JournalLine, addedBy uuid.UUID) *JournalLineAddedEvent {
	return &JournalLineAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalLineAdded, AggregateTypeJournalEntry, je.AggregateID(), je.TenantID(), addedBy),
		Line:            line,
	}
}

// JournalEntryPostedEvent is raised when a balanced entry is posted
type JournalEntryPostedEvent struct {
	shared.BaseDomainEvent
	EntryNumber string          `json:"entry_number"`
	PostedBy    uuid.UUID       `json:"posted_by"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
}

// NewJournalEntryPostedEvent creates a new JournalEntryPostedEvent
func NewJournalEntryPostedEvent(je *JournalEntry, postedBy uuid.UUID) *JournalEntryPostedEvent {
	return &JournalEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryPosted, AggregateTypeJournalEntry, je.AggregateID(), je.TenantID(), postedBy),
		EntryNumber:     je.EntryNumber,
		PostedBy:        postedBy,
		TotalDebit:      je.TotalDebits(),
		TotalCredit:     je.TotalCredits(),
	}
}

// JournalEntryReversedEvent is raised when a posted entry is reversed
type JournalEntryReversedEvent struct {
	shared.BaseDomainEvent
	EntryNumber     string    `json:"entry_number"`
	ReversedBy      uuid.UUID `json:"reversed_by"`
	ReversalEntryID uuid.UUID `json:"reversal_entry_id"`
	Reason          string    `json:"reason,omitempty"`
}

// NewJournalEntryReversedEvent creates a new JournalEntryReversedEvent
func NewJournalEntryReversedEvent(je *JournalEntry, reversedBy, reversalEntryID uuid.UUID, reason string) *JournalEntryReversedEvent {
	return &JournalEntryReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryReversed, AggregateTypeJournalEntry, je.AggregateID(), je.TenantID(), reversedBy),
		EntryNumber:     je.EntryNumber,
		ReversedBy:      reversedBy,
		ReversalEntryID: reversalEntryID,
		Reason:          reason,
	}
}
