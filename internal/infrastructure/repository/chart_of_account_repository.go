package repository

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hisabix/backend/internal/domain/ledger"
	"github.com/hisabix/backend/internal/infrastructure/eventlog"
	"github.com/hisabix/backend/internal/infrastructure/eventsourcing"
	"github.com/hisabix/backend/internal/infrastructure/readmodel"
)

// ChartOfAccountRepository persists ChartOfAccount aggregates in
// tenant-scoped event streams. Code uniqueness and the active-children
// guard are point lookups against the account read model; they are
// eventually consistent with the log, which is acceptable for chart
// maintenance.
type ChartOfAccountRepository struct {
	events *eventsourcing.Repository[*ledger.ChartOfAccount]
	db     *gorm.DB
}

// NewChartOfAccountRepository creates a new chart-of-account repository
func NewChartOfAccountRepository(client eventlog.Client, serializer *eventlog.EventSerializer, db *gorm.DB, logger *zap.Logger) *ChartOfAccountRepository {
	return &ChartOfAccountRepository{
		events: eventsourcing.NewRepository(client, serializer, func() *ledger.ChartOfAccount { return &ledger.ChartOfAccount{} }, logger),
		db:     db,
	}
}

// Save appends the account's uncommitted events to its stream
func (r *ChartOfAccountRepository) Save(ctx context.Context, account *ledger.ChartOfAccount) error {
	return r.events.Save(ctx, account)
}

// GetByID loads an account by replaying its tenant-scoped stream.
// Returns (nil, nil) when the account does not exist for this tenant.
func (r *ChartOfAccountRepository) GetByID(ctx context.Context, tenantID, accountID uuid.UUID) (*ledger.ChartOfAccount, error) {
	return r.events.GetByIDForTenant(ctx, tenantID, accountID)
}

// Exists probes the stream without replaying it
func (r *ChartOfAccountRepository) Exists(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error) {
	return r.events.ExistsForTenant(ctx, tenantID, accountID)
}

// ExistsByCode reports whether the tenant already has an account with
// the given code
func (r *ChartOfAccountRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&readmodel.AccountReadModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasActiveChildren reports whether any active account lists the given
// account as its parent. Deactivation is refused while this holds.
func (r *ChartOfAccountRepository) HasActiveChildren(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&readmodel.AccountReadModel{}).
		Where("tenant_id = ? AND parent_id = ? AND active = ?", tenantID, accountID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
