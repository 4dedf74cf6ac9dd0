package eventsourcing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hisabix/backend/internal/domain/shared"
	"github.com/hisabix/backend/internal/infrastructure/eventlog"
	"github.com/hisabix/backend/internal/infrastructure/logger"
)

// StreamName builds the log stream name for an aggregate without tenant
// scoping
func StreamName(aggregateType string, id uuid.UUID) string {
	return fmt.Sprintf("%s-%s", aggregateType, id)
}

// TenantStreamName builds the tenant-scoped log stream name for an
// aggregate. Two tenants holding the same aggregate ID get disjoint
// streams.
func TenantStreamName(tenantID uuid.UUID, aggregateType string, id uuid.UUID) string {
	return fmt.Sprintf("tenant-%s-%s-%s", tenantID, aggregateType, id)
}

// eventMetadata is stored alongside each event for tracing and auditing
type eventMetadata struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	UserID        uuid.UUID `json:"user_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// Repository persists event-sourced aggregates in the event log. State
// is never stored; loading an aggregate replays its full stream through
// Apply.
type Repository[T shared.AggregateRoot] struct {
	client        eventlog.Client
	serializer    *eventlog.EventSerializer
	factory       func() T
	aggregateType string
	log           *zap.Logger
}

// NewRepository creates a repository for one aggregate type. factory
// must return a fresh zero-state aggregate ready for replay.
func NewRepository[T shared.AggregateRoot](client eventlog.Client, serializer *eventlog.EventSerializer, factory func() T, log *zap.Logger) *Repository[T] {
	return &Repository[T]{
		client:        client,
		serializer:    serializer,
		factory:       factory,
		aggregateType: factory().AggregateType(),
		log:           log,
	}
}

// Save appends the aggregate's uncommitted events to its stream with an
// optimistic concurrency check. A *eventlog.RevisionConflictError means
// another writer saved the aggregate first; reload and retry the
// command.
func (r *Repository[T]) Save(ctx context.Context, aggregate T) error {
	events := aggregate.UncommittedEvents()
	if len(events) == 0 {
		return nil
	}

	stream := r.streamFor(aggregate)
	expected := expectedRevision(aggregate.Version(), len(events))
	correlationID := logger.GetRequestID(ctx)

	proposed := make([]eventlog.ProposedEvent, len(events))
	for i, event := range events {
		if correlated, ok := event.(shared.CorrelatedEvent); ok && correlationID != "" {
			correlated.SetCorrelationID(correlationID)
		}

		data, err := r.serializer.Serialize(event)
		if err != nil {
			return fmt.Errorf("serialize event %s for stream %s: %w", event.EventType(), stream, err)
		}
		metadata, err := json.Marshal(eventMetadata{
			TenantID:      event.TenantID(),
			UserID:        event.UserID(),
			CorrelationID: event.CorrelationID(),
		})
		if err != nil {
			return fmt.Errorf("serialize metadata for stream %s: %w", stream, err)
		}

		proposed[i] = eventlog.ProposedEvent{
			EventID:   event.EventID(),
			EventType: event.EventType(),
			Data:      data,
			Metadata:  metadata,
		}
	}

	revision, err := r.client.Append(ctx, stream, expected, proposed...)
	if err != nil {
		var conflict *eventlog.RevisionConflictError
		if errors.As(err, &conflict) {
			return err
		}
		return fmt.Errorf("append %d events to stream %s (expected revision %s): %w", len(proposed), stream, expected, err)
	}

	aggregate.MarkEventsAsCommitted()
	logger.WithLogger(ctx, r.log).Debug("aggregate saved",
		zap.String("stream", stream),
		zap.Int("events", len(proposed)),
		zap.Int64("revision", revision),
	)
	return nil
}

// GetByID loads an aggregate from its unscoped stream by replaying all
// events. Returns the zero value and nil error when the stream does not
// exist.
func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID) (T, error) {
	return r.load(ctx, StreamName(r.aggregateType, id))
}

// GetByIDForTenant loads an aggregate from its tenant-scoped stream
func (r *Repository[T]) GetByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (T, error) {
	return r.load(ctx, TenantStreamName(tenantID, r.aggregateType, id))
}

// Exists reports whether the aggregate's unscoped stream exists
func (r *Repository[T]) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, StreamName(r.aggregateType, id))
}

// ExistsForTenant reports whether the aggregate's tenant-scoped stream
// exists
func (r *Repository[T]) ExistsForTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, TenantStreamName(tenantID, r.aggregateType, id))
}

func (r *Repository[T]) load(ctx context.Context, stream string) (T, error) {
	var zero T

	recorded, err := r.client.ReadForward(ctx, stream, 0, 0)
	if err != nil {
		if errors.Is(err, eventlog.ErrStreamNotFound) {
			return zero, nil
		}
		return zero, fmt.Errorf("read stream %s: %w", stream, err)
	}

	events := make([]shared.DomainEvent, len(recorded))
	for i, rec := range recorded {
		event, err := r.serializer.Deserialize(rec.EventType, rec.Data)
		if err != nil {
			return zero, fmt.Errorf("deserialize event %s at revision %d of stream %s: %w", rec.EventType, rec.Revision, stream, err)
		}
		events[i] = event
	}

	aggregate := r.factory()
	shared.LoadFromHistory(aggregate, events)
	return aggregate, nil
}

func (r *Repository[T]) exists(ctx context.Context, stream string) (bool, error) {
	_, err := r.client.StreamRevision(ctx, stream)
	if err != nil {
		if errors.Is(err, eventlog.ErrStreamNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read revision of stream %s: %w", stream, err)
	}
	return true, nil
}

// streamFor picks the tenant-scoped stream when the aggregate carries a
// tenant, the unscoped stream otherwise
func (r *Repository[T]) streamFor(aggregate T) string {
	var root shared.AggregateRoot = aggregate
	if owned, ok := root.(shared.TenantOwned); ok && owned.TenantID() != uuid.Nil {
		return TenantStreamName(owned.TenantID(), r.aggregateType, aggregate.AggregateID())
	}
	return StreamName(r.aggregateType, aggregate.AggregateID())
}

// expectedRevision derives the append precondition from the aggregate's
// version. version counts applied events, so the last committed
// revision is version minus the pending events minus one.
func expectedRevision(version int64, pending int) eventlog.ExpectedRevision {
	committed := version - int64(pending)
	if committed == 0 {
		return eventlog.RevisionNoStream
	}
	return eventlog.Exact(committed - 1)
}
