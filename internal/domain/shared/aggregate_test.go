package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterAggregate is a minimal event-sourced aggregate for testing
type counterAggregate struct {
	EventSourcedAggregate
	Count int
}

func (c *counterAggregate) AggregateType() string {
	return "Counter"
}

func (c *counterAggregate) Apply(event DomainEvent) {
	switch e := event.(type) {
	case *counterIncremented:
		c.SetAggregateID(e.AggregateID())
		c.Count += e.By
	}
}

type counterIncremented struct {
	BaseDomainEvent
	By int `json:"by"`
}

func newCounterIncremented(aggID uuid.UUID, by int) *counterIncremented {
	return &counterIncremented{
		BaseDomainEvent: NewBaseDomainEvent("CounterIncremented", "Counter", aggID, uuid.New(), uuid.New()),
		By:              by,
	}
}

func (c *counterAggregate) Increment(by int) {
	Raise(c, newCounterIncremented(c.AggregateID(), by))
}

func TestLoadFromHistory_VersionEqualsEventCount(t *testing.T) {
	aggID := uuid.New()
	events := []DomainEvent{
		newCounterIncremented(aggID, 1),
		newCounterIncremented(aggID, 2),
		newCounterIncremented(aggID, 3),
	}

	agg := &counterAggregate{}
	LoadFromHistory(agg, events)

	assert.Equal(t, int64(3), agg.Version())
	assert.Equal(t, 6, agg.Count)
	assert.Empty(t, agg.UncommittedEvents(), "replay must not buffer events")
}

func TestLoadFromHistory_Deterministic(t *testing.T) {
	aggID := uuid.New()
	events := []DomainEvent{
		newCounterIncremented(aggID, 5),
		newCounterIncremented(aggID, 7),
	}

	first := &counterAggregate{}
	second := &counterAggregate{}
	LoadFromHistory(first, events)
	LoadFromHistory(second, events)

	assert.Equal(t, first.Count, second.Count)
	assert.Equal(t, first.Version(), second.Version())
	assert.Equal(t, first.AggregateID(), second.AggregateID())
}

func TestRaise_BuffersAndApplies(t *testing.T) {
	agg := &counterAggregate{}
	agg.SetAggregateID(uuid.New())

	agg.Increment(4)
	agg.Increment(6)

	assert.Equal(t, 10, agg.Count, "state must match buffered history")
	assert.Equal(t, int64(2), agg.Version())
	require.Len(t, agg.UncommittedEvents(), 2)
}

func TestMarkEventsAsCommitted_Idempotent(t *testing.T) {
	agg := &counterAggregate{}
	agg.SetAggregateID(uuid.New())
	agg.Increment(1)

	agg.MarkEventsAsCommitted()
	assert.Empty(t, agg.UncommittedEvents())

	agg.MarkEventsAsCommitted()
	assert.Empty(t, agg.UncommittedEvents())
	assert.Equal(t, int64(1), agg.Version(), "commit must not touch the version")
}

func TestApply_IgnoresUnknownEventTypes(t *testing.T) {
	agg := &counterAggregate{}
	unknown := &BaseDomainEvent{
		ID:      uuid.New(),
		Type:    "SomethingElse",
		AggID:   uuid.New(),
		AggType: "Counter",
	}

	LoadFromHistory(agg, []DomainEvent{unknown})

	assert.Equal(t, 0, agg.Count)
	assert.Equal(t, int64(1), agg.Version(), "version still counts every replayed event")
}

func TestSetCorrelationID_DoesNotOverwrite(t *testing.T) {
	e := newCounterIncremented(uuid.New(), 1)
	e.SetCorrelationID("req-1")
	e.SetCorrelationID("req-2")
	assert.Equal(t, "req-1", e.CorrelationID())
}
