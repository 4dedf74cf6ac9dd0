package readmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hisabix/backend/internal/domain/ledger"
)

// SequenceError is returned when a document number could not be issued.
// Callers must not fall back to a guessed number; the operation fails.
type SequenceError struct {
	TenantID uuid.UUID
	Key      string
	Err      error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("issue number for tenant %s key %s: %v", e.TenantID, e.Key, e.Err)
}

func (e *SequenceError) Unwrap() error {
	return e.Err
}

// SequenceGenerator issues gap-free per-tenant document numbers from
// counter rows. The increment is a single atomic upsert, so concurrent
// callers never observe the same value.
type SequenceGenerator struct {
	db *gorm.DB
}

// NewSequenceGenerator creates a new sequence generator
func NewSequenceGenerator(db *gorm.DB) *SequenceGenerator {
	return &SequenceGenerator{db: db}
}

// Next atomically increments the counter for (tenantID, key) and
// returns the new value. The first call for a key returns 1.
func (g *SequenceGenerator) Next(ctx context.Context, tenantID uuid.UUID, key string) (int64, error) {
	var value int64
	err := g.db.WithContext(ctx).Raw(`
		INSERT INTO number_sequences (tenant_id, seq_key, last_value, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (tenant_id, seq_key)
		DO UPDATE SET last_value = number_sequences.last_value + 1, updated_at = ?
		RETURNING last_value`,
		tenantID, key, time.Now(), time.Now(),
	).Scan(&value).Error
	if err != nil {
		return 0, &SequenceError{TenantID: tenantID, Key: key, Err: err}
	}
	return value, nil
}

// NextInvoiceNumber issues the next invoice number for the given issue
// date, formatted INV-YYYY-MM-DD-NNNNNN with a daily counter
func (g *SequenceGenerator) NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	return g.nextDaily(ctx, tenantID, "INV", date)
}

// NextPaymentNumber issues the next payment number for the given date,
// formatted PMT-YYYY-MM-DD-NNNNNN with a daily counter
func (g *SequenceGenerator) NextPaymentNumber(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	return g.nextDaily(ctx, tenantID, "PMT", date)
}

// NextJournalNumber issues the next entry number for a journal book,
// formatted {PREFIX}-YYYY-MM-NNNNNN with a monthly counter per book
func (g *SequenceGenerator) NextJournalNumber(ctx context.Context, tenantID uuid.UUID, journalType ledger.JournalType, date time.Time) (string, error) {
	key := fmt.Sprintf("%s-%s", journalType.Prefix(), date.Format("2006-01"))
	value, err := g.Next(ctx, tenantID, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", key, value), nil
}

// NextMushakNumber issues the next VAT challan number for the given
// year, formatted MUS-YYYY-NNNNNN with a yearly counter
func (g *SequenceGenerator) NextMushakNumber(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	key := fmt.Sprintf("MUS-%s", date.Format("2006"))
	value, err := g.Next(ctx, tenantID, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", key, value), nil
}

func (g *SequenceGenerator) nextDaily(ctx context.Context, tenantID uuid.UUID, prefix string, date time.Time) (string, error) {
	key := fmt.Sprintf("%s-%s", prefix, date.Format("2006-01-02"))
	value, err := g.Next(ctx, tenantID, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", key, value), nil
}
