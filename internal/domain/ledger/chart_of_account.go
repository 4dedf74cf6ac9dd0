package ledger

import (
	"github.com/google/uuid"

	"github.com/hisabix/backend/internal/domain/shared"
)

// AccountType classifies an account in the chart of accounts
type AccountType string

// Account types
const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// ErrAccountInactive is returned when mutating a deactivated account
var ErrAccountInactive = shared.NewDomainError("ACCOUNT_INACTIVE", "Account is deactivated")

// AggregateTypeChartOfAccount is the stream category for chart-of-account entries
const AggregateTypeChartOfAccount = "chartofaccount"

// ChartOfAccount is an event-sourced aggregate for a single account in
// a tenant's chart of accounts. Code uniqueness and safe deactivation
// (no active children) are gated by the caller against the account read
// model before invoking the corresponding operations.
type ChartOfAccount struct {
	shared.EventSourcedAggregate
	tenantID    uuid.UUID
	Code        string
	Name        string
	AccountType AccountType
	ParentID    *uuid.UUID
	Active      bool
}

// AggregateType returns the aggregate type used in stream names
func (a *ChartOfAccount) AggregateType() string {
	return AggregateTypeChartOfAccount
}

// TenantID returns the owning tenant, set at creation
func (a *ChartOfAccount) TenantID() uuid.UUID {
	return a.tenantID
}

// NewChartOfAccount creates a new active account
func NewChartOfAccount(tenantID uuid.UUID, code, name string, accountType AccountType, parentID *uuid.UUID, createdBy uuid.UUID) (*ChartOfAccount, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type is not valid")
	}

	a := &ChartOfAccount{}
	shared.Raise(a, NewAccountCreatedEvent(uuid.New(), tenantID, code, name, accountType, parentID, createdBy))
	return a, nil
}

// Rename changes the display name of an active account
func (a *ChartOfAccount) Rename(name string, renamedBy uuid.UUID) error {
	if !a.Active {
		return ErrAccountInactive
	}
	if name == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if name == a.Name {
		return nil
	}
	shared.Raise(a, NewAccountRenamedEvent(a, name, renamedBy))
	return nil
}

// Deactivate marks the account inactive. The caller must first verify
// via the read model that the account has no active children.
func (a *ChartOfAccount) Deactivate(deactivatedBy uuid.UUID) error {
	if !a.Active {
		return ErrAccountInactive
	}
	shared.Raise(a, NewAccountDeactivatedEvent(a, deactivatedBy))
	return nil
}

// Reactivate restores a deactivated account
func (a *ChartOfAccount) Reactivate(reactivatedBy uuid.UUID) error {
	if a.Active {
		return shared.NewDomainError("ACCOUNT_ACTIVE", "Account is already active")
	}
	shared.Raise(a, NewAccountReactivatedEvent(a, reactivatedBy))
	return nil
}

// Apply transitions account state for a single event during replay
func (a *ChartOfAccount) Apply(event shared.DomainEvent) {
	switch e := event.(type) {
	case *AccountCreatedEvent:
		a.SetAggregateID(e.AggregateID())
		a.tenantID = e.TenantID()
		a.Code = e.Code
		a.Name = e.Name
		a.AccountType = e.AccountType
		a.ParentID = e.ParentID
		a.Active = true
	case *AccountRenamedEvent:
		a.Name = e.Name
	case *AccountDeactivatedEvent:
		a.Active = false
	case *AccountReactivatedEvent:
		a.Active = true
	}
}

// Ensure ChartOfAccount implements the aggregate contracts
var (
	_ shared.AggregateRoot = (*ChartOfAccount)(nil)
	_ shared.TenantOwned   = (*ChartOfAccount)(nil)
)
