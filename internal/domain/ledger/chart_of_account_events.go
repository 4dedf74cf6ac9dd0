package ledger

import (
	"github.com/google/uuid"

	"github.com/hisabix/backend/internal/domain/shared"
)

// Chart-of-account event type names as stored in the event log
const (
	EventTypeAccountCreated     = "AccountCreated"
	EventTypeAccountRenamed     = "AccountRenamed"
	EventTypeAccountDeactivated = "AccountDeactivated"
	EventTypeAccountReactivated = "AccountReactivated"
)

// AccountCreatedEvent is raised when a new account is added to the chart
type AccountCreatedEvent struct {
	shared.BaseDomainEvent
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	AccountType AccountType `json:"account_type"`
	ParentID    *uuid.UUID  `json:"parent_id,omitempty"`
}

// NewAccountCreatedEvent creates a new AccountCreatedEvent
func NewAccountCreatedEvent(accountID, tenantID uuid.UUID, code, name string, accountType AccountType, parentID *uuid.UUID, createdBy uuid.UUID) *AccountCreatedEvent {
	return &AccountCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountCreated, AggregateTypeChartOfAccount, accountID, tenantID, createdBy),
		Code:            code,
		Name:            name,
		AccountType:     accountType,
		ParentID:        parentID,
	}
}

// AccountRenamedEvent is raised when an account is renamed
type AccountRenamedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewAccountRenamedEvent creates a new AccountRenamedEvent
func NewAccountRenamedEvent(a *ChartOfAccount, name string, renamedBy uuid.UUID) *AccountRenamedEvent {
	return &AccountRenamedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountRenamed, AggregateTypeChartOfAccount, a.AggregateID(), a.TenantID(), renamedBy),
		Code:            a.Code,
		Name:            name,
	}
}

// AccountDeactivatedEvent is raised when an account is deactivated
type AccountDeactivatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewAccountDeactivatedEvent creates a new AccountDeactivatedEvent
func NewAccountDeactivatedEvent(a *ChartOfAccount, deactivatedBy uuid.UUID) *AccountDeactivatedEvent {
	return &AccountDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountDeactivated, AggregateTypeChartOfAccount, a.AggregateID(), a.TenantID(), deactivatedBy),
		Code:            a.Code,
	}
}

// AccountReactivatedEvent is raised when an account is reactivated
type AccountReactivatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewAccountReactivatedEvent creates a new AccountReactivatedEvent
func NewAccountReactivatedEvent(a *ChartOfAccount, reactivatedBy uuid.UUID) *AccountReactivatedEvent {
	return &AccountReactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountReactivated, AggregateTypeChartOfAccount, a.AggregateID(), a.TenantID(), reactivatedBy),
		Code:            a.Code,
	}
}
