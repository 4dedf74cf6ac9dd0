package readmodel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Read model rows are projections of the event log. LastEventVersion
// records the revision of the newest event applied to the row; the
// projection handlers use it to make redeliveries and stale deliveries
// no-ops.

// InvoiceReadModel is the query-side row for an invoice
type InvoiceReadModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceNumber    string          `gorm:"size:64;not null"`
	MushakNumber     string          `gorm:"size:64"`
	VendorID         uuid.UUID       `gorm:"type:uuid;not null"`
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	IssueDate        time.Time       `gorm:"not null"`
	Status           string          `gorm:"size:32;not null;index"`
	LineCount        int             `gorm:"not null;default:0"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	VATAmount        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	GrandTotal       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	PaymentRef       string          `gorm:"size:128"`
	LastEventVersion int64           `gorm:"not null"`
	UpdatedAt        time.Time
}

// TableName specifies the table name for InvoiceReadModel
func (InvoiceReadModel) TableName() string {
	return "invoice_read_models"
}

// PaymentReadModel is the query-side row for a payment
type PaymentReadModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentNumber    string          `gorm:"size:64;not null"`
	InvoiceID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	PayerID          uuid.UUID       `gorm:"type:uuid;not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Method           string          `gorm:"size:32;not null"`
	Status           string          `gorm:"size:32;not null;index"`
	Reference        string          `gorm:"size:128"`
	FailureReason    string          `gorm:"size:512"`
	LastEventVersion int64           `gorm:"not null"`
	UpdatedAt        time.Time
}

// TableName specifies the table name for PaymentReadModel
func (PaymentReadModel) TableName() string {
	return "payment_read_models"
}

// JournalEntryReadModel is the query-side row for a journal entry
type JournalEntryReadModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	EntryNumber      string          `gorm:"size:64;not null"`
	JournalType      string          `gorm:"size:8;not null"`
	EntryDate        time.Time       `gorm:"not null"`
	Description      string          `gorm:"size:512"`
	Status           string          `gorm:"size:32;not null;index"`
	LineCount        int             `gorm:"not null;default:0"`
	TotalDebit       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TotalCredit      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	ReversalOf       *uuid.UUID      `gorm:"type:uuid"`
	LastEventVersion int64           `gorm:"not null"`
	UpdatedAt        time.Time
}

// TableName specifies the table name for JournalEntryReadModel
func (JournalEntryReadModel) TableName() string {
	return "journal_entry_read_models"
}

// AccountReadModel is the query-side row for a chart-of-accounts entry.
// The (tenant_id, code) unique index backs the code-uniqueness check in
// the account repository.
type AccountReadModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_account_tenant_code,priority:1"`
	Code             string     `gorm:"size:64;not null;uniqueIndex:idx_account_tenant_code,priority:2"`
	Name             string     `gorm:"size:255;not null"`
	AccountType      string     `gorm:"size:32;not null"`
	ParentID         *uuid.UUID `gorm:"type:uuid;index"`
	Active           bool       `gorm:"not null;default:true"`
	LastEventVersion int64      `gorm:"not null"`
	UpdatedAt        time.Time
}

// TableName specifies the table name for AccountReadModel
func (AccountReadModel) TableName() string {
	return "account_read_models"
}

// NumberSequence backs the atomic document number generator. The
// composite primary key is the upsert conflict target.
type NumberSequence struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	SeqKey    string    `gorm:"size:64;primaryKey"`
	LastValue int64     `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName specifies the table name for NumberSequence
func (NumberSequence) TableName() string {
	return "number_sequences"
}

// Migrate creates all read model tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&InvoiceReadModel{},
		&PaymentReadModel{},
		&JournalEntryReadModel{},
		&AccountReadModel{},
		&NumberSequence{},
	)
}
