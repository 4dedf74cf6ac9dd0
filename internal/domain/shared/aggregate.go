package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for event-sourced aggregate roots.
// State derives solely from the aggregate's own event stream: replaying
// the same history against a fresh instance must always produce the same
// state and version.
type AggregateRoot interface {
	AggregateID() uuid.UUID
	AggregateType() string
	Version() int64
	// Apply transitions in-memory state for a single event. It must be a
	// pure function of (state, event) and must never fail on the
	// aggregate's own self-authored history; unknown event types are
	// ignored.
	Apply(event DomainEvent)
	AddDomainEvent(event DomainEvent)
	UncommittedEvents() []DomainEvent
	MarkEventsAsCommitted()
	IncrementVersion()
}

// TenantOwned is implemented by aggregates that belong to a tenant. The
// tenant identity is set at creation and read off the aggregate itself,
// never passed separately, so a save can never target another tenant's
// stream.
type TenantOwned interface {
	TenantID() uuid.UUID
}

// EventSourcedAggregate provides common state for event-sourced
// aggregate roots: identity, a monotonic version counter and the buffer
// of not-yet-persisted events. Version equals the count of events
// applied so far (replayed plus newly raised).
type EventSourcedAggregate struct {
	id          uuid.UUID
	version     int64
	uncommitted []DomainEvent
}

// AggregateID returns the aggregate identity
func (a *EventSourcedAggregate) AggregateID() uuid.UUID {
	return a.id
}

// SetAggregateID sets the aggregate identity. Used by constructors and
// by repositories before replay.
func (a *EventSourcedAggregate) SetAggregateID(id uuid.UUID) {
	a.id = id
}

// Version returns the number of events applied so far
func (a *EventSourcedAggregate) Version() int64 {
	return a.version
}

// IncrementVersion increments the version counter by one
func (a *EventSourcedAggregate) IncrementVersion() {
	a.version++
}

// AddDomainEvent appends an event to the uncommitted buffer without
// applying it. Prefer Raise, which keeps state and buffer in sync.
func (a *EventSourcedAggregate) AddDomainEvent(event DomainEvent) {
	a.uncommitted = append(a.uncommitted, event)
}

// UncommittedEvents returns events produced since the last commit
func (a *EventSourcedAggregate) UncommittedEvents() []DomainEvent {
	return a.uncommitted
}

// MarkEventsAsCommitted clears the uncommitted buffer. Idempotent.
func (a *EventSourcedAggregate) MarkEventsAsCommitted() {
	a.uncommitted = nil
}

// Raise records a new domain event and immediately applies it, so the
// in-memory state always matches the buffered history. Aggregate
// mutation methods call this with their own root.
func Raise(root AggregateRoot, event DomainEvent) {
	root.AddDomainEvent(event)
	root.Apply(event)
	root.IncrementVersion()
}

// LoadFromHistory replays events in order against the root: each event
// is dispatched to Apply, then the version is incremented. After
// replaying N events the version is exactly N.
func LoadFromHistory(root AggregateRoot, events []DomainEvent) {
	for _, event := range events {
		root.Apply(event)
		root.IncrementVersion()
	}
}
