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

// AccountProjection maintains account_read_models from the
// chartofaccount category stream. The projected rows back the code
// uniqueness and active-children checks in the account repository.
type AccountProjection struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAccountProjection creates a new account projection
func NewAccountProjection(db *gorm.DB, logger *zap.Logger) *AccountProjection {
	return &AccountProjection{db: db, logger: logger}
}

// Handle applies one delivered account event to the read model
func (p *AccountProjection) Handle(ctx context.Context, event shared.DomainEvent, msg subscription.Message) error {
	switch e := event.(type) {
	case *ledger.AccountCreatedEvent:
		row := &readmodel.AccountReadModel{
			ID:               e.AggregateID(),
			TenantID:         e.TenantID(),
			Code:             e.Code,
			Name:             e.Name,
			AccountType:      string(e.AccountType),
			ParentID:         e.ParentID,
			Active:           true,
			LastEventVersion: msg.Revision,
		}
		return p.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(row).Error
	case *ledger.AccountRenamedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"name": e.Name,
		})
	case *ledger.AccountDeactivatedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"active": false,
		})
	case *ledger.AccountReactivatedEvent:
		return p.update(ctx, e, msg.Revision, map[string]interface{}{
			"active": true,
		})
	default:
		return nil
	}
}

func (p *AccountProjection) update(ctx context.Context, e shared.DomainEvent, revision int64, changes map[string]interface{}) error {
	changes["last_event_version"] = revision

	res := p.db.WithContext(ctx).
		Model(&readmodel.AccountReadModel{}).
		Where("id = ? AND last_event_version < ?", e.AggregateID(), revision).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return staleOrMissing(ctx, p.db, &readmodel.AccountReadModel{}, e, revision, p.logger)
	}
	return nil
}

// Ensure AccountProjection implements subscription.Handler
var _ subscription.Handler = (*AccountProjection)(nil)
