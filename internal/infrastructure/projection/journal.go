package projection

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hisabix/backend/internal/domain/ledger"
	"github.com/hisabix/backend/internal/domain/shared"
	"github.com/hisabix/backend/internal/infrastructure/readmodel"
	"github.com/hisabix/backend/internal/infrastructure/subscription"
)

// JournalEntryProjection maintains journal_entry_read_models from the
// journalentry category stream
type JournalEntryProjection struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewJournalEntryProjection creates a new journal entry projection
func NewJournalEntryProjection(db *gorm.DB, logger *zap.Logger) *JournalEntryProjection {
	return &JournalEntryProjection{db: db, logger: logger}
}

// Handle applies one delivered journal entry event to the read model
func (p *JournalEntryProjection) Handle(ctx context.Context, event shared.DomainEvent, msg subscription.Message) error {
	switch e := event.(type) {
	case *ledger.JournalEntryCreatedEvent:
		row := &readmodel.JournalEntryReadModel{
			ID:               e.AggregateID(),
			TenantID:         e.TenantID(),
			EntryNumber:      e.EntryNumber,
			JournalType:      string(e.JournalType),
			EntryDate:        e.EntryDate,
			Description:      e.Description,
			Status:           string(ledger.JournalEntryStatusDraft),
			LastEventVersion: msg.Revision,
		}
		return p.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(row).Error
	case *ledger.JournalLineAddedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"line_count":   gorm.Expr("line_count + 1"),
			"total_debit":  gorm.Expr("total_debit + ?", e.Line.Debit),
			"total_credit": gorm.Expr("total_credit + ?", e.Line.Credit),
		})
	case *ledger.JournalEntryPostedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"status":       string(ledger.JournalEntryStatusPosted),
			"total_debit":  e.TotalDebit,
			"total_credit": e.TotalCredit,
		})
	case *ledger.JournalEntryReversedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"status":      string(ledger.JournalEntryStatusReversed),
			"reversal_of": e.ReversalEntryID,
		})
	default:
		return nil
	}
}

func (p *JournalEntryProjection) update(ctx context.Context, e shared.DomainEvent, revision int64, changes map[string]interface{}) error {
	changes["last_event_version"] = revision

	res := p.db.WithContext(ctx).
		Model(&readmodel.JournalEntryReadModel{}).
		Where("id = ? AND last_event_version < ?", e.AggregateID(), revision).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return staleOrMissing(ctx, p.db, &readmodel.JournalEntryReadModel{}, e, revision, p.logger)
	}
	return nil
}

// Ensure JournalEntryProjection implements subscription.Handler
var _ subscription.Handler = (*JournalEntryProjection)(nil)
