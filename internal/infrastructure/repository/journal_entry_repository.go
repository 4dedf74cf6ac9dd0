package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hisabix/backend/internal/domain/ledger"
	"github.com/hisabix/backend/internal/infrastructure/eventlog"
	"github.com/hisabix/backend/internal/infrastructure/eventsourcing"
	"github.com/hisabix/backend/internal/infrastructure/readmodel"
)

// JournalEntryRepository persists JournalEntry aggregates in
// tenant-scoped event streams and issues entry numbers per journal book
type JournalEntryRepository struct {
	events *eventsourcing.Repository[*ledger.JournalEntry]
	seq    *readmodel.SequenceGenerator
}

// NewJournalEntryRepository creates a new journal entry repository
func NewJournalEntryRepository(client eventlog.Client, serializer *eventlog.EventSerializer, db *gorm.DB, logger *zap.Logger) *JournalEntryRepository {
	return &JournalEntryRepository{
		events: eventsourcing.NewRepository(client, serializer, func() *ledger.JournalEntry { return &ledger.JournalEntry{} }, logger),
		seq:    readmodel.NewSequenceGenerator(db),
	}
}

// Save appends the entry's uncommitted events to its stream
func (r *JournalEntryRepository) Save(ctx context.Context, entry *ledger.JournalEntry) error {
	return r.events.Save(ctx, entry)
}

// GetByID loads a journal entry by replaying its tenant-scoped stream.
// Returns (nil, nil) when the entry does not exist for this tenant.
func (r *JournalEntryRepository) GetByID(ctx context.Context, tenantID, entryID uuid.UUID) (*ledger.JournalEntry, error) {
	return r.events.GetByIDForTenant(ctx, tenantID, entryID)
}

// Exists probes the stream without replaying it
func (r *JournalEntryRepository) Exists(ctx context.Context, tenantID, entryID uuid.UUID) (bool, error) {
	return r.events.ExistsForTenant(ctx, tenantID, entryID)
}

// NextJournalNumber issues the next entry number for a journal book and
// month
func (r *JournalEntryRepository) NextJournalNumber(ctx context.Context, tenantID uuid.UUID, journalType ledger.JournalType, date time.Time) (string, error) {
	return r.seq.NextJournalNumber(ctx, tenantID, journalType, date)
}
