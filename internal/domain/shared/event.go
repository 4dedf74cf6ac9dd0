package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
	UserID() uuid.UUID
	CorrelationID() string
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID                 uuid.UUID `json:"id"`
	Type               string    `json:"type"`
	Timestamp          time.Time `json:"timestamp"`
	AggID              uuid.UUID `json:"aggregate_id"`
	AggType            string    `json:"aggregate_type"`
	TenantIDValue      uuid.UUID `json:"tenant_id"`
	UserIDValue        uuid.UUID `json:"user_id"`
	CorrelationIDValue string    `json:"correlation_id,omitempty"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the ID of the aggregate that produced this event
func (e *BaseDomainEvent) AggregateID() uuid.UUID {
	return e.AggID
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// TenantID returns the tenant ID
func (e *BaseDomainEvent) TenantID() uuid.UUID {
	return e.TenantIDValue
}

// UserID returns the ID of the user who triggered the event.
// Returns uuid.Nil for system-generated events.
func (e *BaseDomainEvent) UserID() uuid.UUID {
	return e.UserIDValue
}

// CorrelationID returns the correlation ID linking this event to the
// request that caused it. May be empty; the repository fills it from the
// request context at append time.
func (e *BaseDomainEvent) CorrelationID() string {
	return e.CorrelationIDValue
}

// SetCorrelationID sets the correlation ID. Called by the persistence
// layer before append; events never overwrite a non-empty value.
func (e *BaseDomainEvent) SetCorrelationID(id string) {
	if e.CorrelationIDValue == "" {
		e.CorrelationIDValue = id
	}
}

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, aggType string, aggID, tenantID, userID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggID:         aggID,
		AggType:       aggType,
		TenantIDValue: tenantID,
		UserIDValue:   userID,
	}
}

// CorrelatedEvent is implemented by events whose correlation ID can be
// filled in after construction.
type CorrelatedEvent interface {
	DomainEvent
	SetCorrelationID(id string)
}
