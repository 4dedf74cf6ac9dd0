package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hisabix/backend/internal/domain/shared"
)

// JournalType identifies the book a journal entry is recorded in. The
// prefix doubles as the first segment of the entry number.
type JournalType string

// Journal types and their number prefixes
const (
	JournalGeneral       JournalType = "GJ" // general journal
	JournalSales         JournalType = "SJ" // sales journal
	JournalPurchase      JournalType = "PJ" // purchase journal
	JournalCashReceipt   JournalType = "CR" // cash receipts
	JournalCashPayment   JournalType = "CP" // cash payments
	JournalAdjusting     JournalType = "AJ" // adjusting entries
	JournalReversing     JournalType = "RJ" // reversing entries
	JournalClosing       JournalType = "CJ" // closing entries
	JournalOpeningOther  JournalType = "OJ" // opening balances and other
)

// IsValid checks if the journal type is one of the nine known books
func (j JournalType) IsValid() bool {
	switch j {
	case JournalGeneral, JournalSales, JournalPurchase, JournalCashReceipt,
		JournalCashPayment, JournalAdjusting, JournalReversing, JournalClosing, JournalOpeningOther:
		return true
	}
	return false
}

// Prefix returns the sequence prefix for this journal type
func (j JournalType) Prefix() string {
	return string(j)
}

// JournalEntryStatus represents the lifecycle state of a journal entry
type JournalEntryStatus string

// Journal entry lifecycle: DRAFT -> POSTED -> REVERSED
const (
	JournalEntryStatusDraft    JournalEntryStatus = "DRAFT"
	JournalEntryStatusPosted   JournalEntryStatus = "POSTED"
	JournalEntryStatusReversed JournalEntryStatus = "REVERSED"
)

// Journal entry domain errors
var (
	ErrInvalidJournalStatus = shared.NewDomainError("INVALID_JOURNAL_STATUS", "Operation not allowed in current journal entry status")
	ErrUnbalancedEntry      = shared.NewDomainError("UNBALANCED_ENTRY", "Total debits must equal total credits")
)

// JournalLine is one debit or credit leg of a journal entry
type JournalLine struct {
	LineID      uuid.UUID       `json:"line_id"`
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo,omitempty"`
}

// AggregateTypeJournalEntry is the stream category for journal entries
const AggregateTypeJournalEntry = "journalentry"

// JournalEntry is an event-sourced aggregate recording a double-entry
// bookkeeping transaction. Posting requires balanced debits and credits.
type JournalEntry struct {
	shared.EventSourcedAggregate
	tenantID    uuid.UUID
	EntryNumber string
	JournalType JournalType
	EntryDate   time.Time
	Description string
	Status      JournalEntryStatus
	Lines       []JournalLine
	PostedBy    *uuid.UUID
	PostedAt    *time.Time
	ReversedBy  *uuid.UUID
	ReversedAt  *time.Time
	ReversalOf  uuid.UUID
}

// AggregateType returns the aggregate type used in stream names
func (je *JournalEntry) AggregateType() string {
	return AggregateTypeJournalEntry
}

// TenantID returns the owning tenant, set at creation
func (je *JournalEntry) TenantID() uuid.UUID {
	return je.tenantID
}

// NewJournalEntry creates a new draft journal entry
func NewJournalEntry(tenantID uuid.UUID, entryNumber string, journalType JournalType, entryDate time.Time, description string, createdBy uuid.UUID) (*JournalEntry, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if entryNumber == "" {
		return nil, shared.NewDomainError("INVALID_ENTRY_NUMBER", "Entry number cannot be empty")
	}
	if !journalType.IsValid() {
		return nil, shared.NewDomainError("INVALID_JOURNAL_TYPE", "Journal type is not valid")
	}
	if entryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ENTRY_DATE", "Entry date is required")
	}

	je := &JournalEntry{}
	shared.Raise(je, NewJournalEntryCreatedEvent(uuid.New(), tenantID, entryNumber, journalType, entryDate, description, createdBy))
	return je, nil
}

// AddLine adds a debit or credit leg to a draft entry. A line must move
// exactly one side.
func (je *JournalEntry) AddLine(accountID uuid.UUID, accountCode string, debit, credit decimal.Decimal, memo string, addedBy uuid.UUID) error {
	if je.Status != JournalEntryStatusDraft {
		return ErrInvalidJournalStatus
	}
	if accountID == uuid.Nil || accountCode == "" {
		return shared.NewDomainError("INVALID_LINE", "Account reference is required")
	}
	if debit.LessThan(decimal.Zero) || credit.LessThan(decimal.Zero) {
		return shared.NewDomainError("INVALID_LINE", "Debit and credit cannot be negative")
	}
	debitSet := debit.GreaterThan(decimal.Zero)
	creditSet := credit.GreaterThan(decimal.Zero)
	if debitSet == creditSet {
		return shared.NewDomainError("INVALID_LINE", "Exactly one of debit or credit must be positive")
	}

	line := JournalLine{
		LineID:      uuid.New(),
		AccountID:   accountID,
		AccountCode: accountCode,
		Debit:       debit,
		Credit:      credit,
		Memo:        memo,
	}
	shared.Raise(je, NewJournalLineAddedEvent(je, line, addedBy))
	return nil
}

// TotalDebits returns the sum of all debit legs
func (je *JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, line := range je.Lines {
		total = total.Add(line.Debit)
	}
	return total
}

// TotalCredits returns the sum of all credit legs
func (je *JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, line := range je.Lines {
		total = total.Add(line.Credit)
	}
	return total
}

// Post posts a balanced draft entry to the ledger
func (je *JournalEntry) Post(postedBy uuid.UUID) error {
	if je.Status != JournalEntryStatusDraft {
		return ErrInvalidJournalStatus
	}
	if postedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Posting user ID is required")
	}
	if len(je.Lines) < 2 {
		return shared.NewDomainError("INVALID_ENTRY", "A journal entry needs at least two lines")
	}
	if !je.TotalDebits().Equal(je.TotalCredits()) {
		return ErrUnbalancedEntry
	}
	shared.Raise(je, NewJournalEntryPostedEvent(je, postedBy))
	return nil
}

// Reverse marks a posted entry as reversed, referencing the reversing
// entry recorded in the reversing journal
func (je *JournalEntry) Reverse(reversedBy, reversalEntryID uuid.UUID, reason string) error {
	if je.Status != JournalEntryStatusPosted {
		return ErrInvalidJournalStatus
	}
	if reversedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Reversing user ID is required")
	}
	shared.Raise(je, NewJournalEntryReversedEvent(je, reversedBy, reversalEntryID, reason))
	return nil
}

// Apply transitions journal entry state for a single event during replay
func (je *JournalEntry) Apply(event shared.DomainEvent) {
	switch e := event.(type) {
	case *JournalEntryCreatedEvent:
		je.SetAggregateID(e.AggregateID())
		je.tenantID = e.TenantID()
		je.EntryNumber = e.EntryNumber
		je.JournalType = e.JournalType
		je.EntryDate = e.EntryDate
		je.Description = e.Description
		je.Status = JournalEntryStatusDraft
	case *JournalLineAddedEvent:
		je.Lines = append(je.Lines, e.Line)
	case *JournalEntryPostedEvent:
		je.Status = JournalEntryStatusPosted
		postedBy := e.PostedBy
		postedAt := e.OccurredAt()
		je.PostedBy = &postedBy
		je.PostedAt = &postedAt
	case *JournalEntryReversedEvent:
		je.Status = JournalEntryStatusReversed
		reversedBy := e.ReversedBy
		reversedAt := e.OccurredAt()
		je.ReversedBy = &reversedBy
		je.ReversedAt = &reversedAt
		je.ReversalOf = e.ReversalEntryID
	}
}

// Ensure JournalEntry implements the aggregate contracts
var (
	_ shared.AggregateRoot = (*JournalEntry)(nil)
	_ shared.TenantOwned   = (*JournalEntry)(nil)
)
