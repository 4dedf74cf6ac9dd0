package subscription

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hisabix/backend/internal/domain/billing"
	"github.com/hisabix/backend/internal/domain/shared"
	"github.com/hisabix/backend/internal/infrastructure/eventlog"
)

type fakeStreamClient struct {
	mu     sync.Mutex
	queue  []Message
	acked  []string
	dead   []Message
	groups []string
}

func (f *fakeStreamClient) CreateGroup(_ context.Context, stream, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, stream+"/"+group)
	return nil
}

func (f *fakeStreamClient) ReadGroup(_ context.Context, _, _, _ string, count int64, _ time.Duration) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, nil
	}
	n := int(count)
	if n > len(f.queue) {
		n = len(f.queue)
	}
	batch := f.queue[:n]
	f.queue = f.queue[n:]
	return batch, nil
}

func (f *fakeStreamClient) Ack(_ context.Context, _, _ string, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	return nil
}

func (f *fakeStreamClient) Claim(_ context.Context, _, _, _ string, _ time.Duration, _ int64) ([]Message, error) {
	return nil, nil
}

func (f *fakeStreamClient) DeadLetter(_ context.Context, _, _ string, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead = append(f.dead, msg)
	f.acked = append(f.acked, msg.ID)
	return nil
}

func (f *fakeStreamClient) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

func invoiceSerializer() *eventlog.EventSerializer {
	s := eventlog.NewEventSerializer()
	s.Register(billing.EventTypeInvoiceCreated, &billing.InvoiceCreatedEvent{})
	return s
}

func invoiceMessage(t *testing.T, serializer *eventlog.EventSerializer, id string, deliveries int64) Message {
	t.Helper()
	event := billing.NewInvoiceCreatedEvent(uuid.New(), uuid.New(), "INV-2024-10-15-000001",
		uuid.New(), uuid.New(), time.Now(), uuid.New())
	data, err := serializer.Serialize(event)
	require.NoError(t, err)
	return Message{
		ID:         id,
		EventID:    event.EventID().String(),
		EventType:  event.EventType(),
		Stream:     "tenant-" + event.TenantID().String() + "-invoice-" + event.AggregateID().String(),
		Revision:   0,
		Data:       data,
		Deliveries: deliveries,
	}
}

func newTestConsumer(client StreamClient, serializer *eventlog.EventSerializer, handler Handler) *Consumer {
	config := DefaultConsumerConfig("events:invoice", "invoice-projection", "worker-1")
	config.Block = 10 * time.Millisecond
	config.ClaimInterval = time.Hour
	return NewConsumer(client, serializer, handler, config, zap.NewNop())
}

func TestConsumer_ProcessesAndAcks(t *testing.T) {
	serializer := invoiceSerializer()
	client := &fakeStreamClient{}
	client.queue = append(client.queue, invoiceMessage(t, serializer, "1-0", 1))

	var mu sync.Mutex
	var handled []string
	handler := HandlerFunc(func(_ context.Context, event shared.DomainEvent, _ Message) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, event.EventType())
		return nil
	})

	consumer := newTestConsumer(client, serializer, handler)
	require.NoError(t, consumer.Start(context.Background()))

	require.Eventually(t, func() bool {
		return consumer.Stats().Processed == 1
	}, 5*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, consumer.Stop(stopCtx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{billing.EventTypeInvoiceCreated}, handled)
	assert.Equal(t, []string{"1-0"}, client.ackedIDs())
	assert.Contains(t, client.groups, "events:invoice/invoice-projection")
}

func TestConsumer_HandlerErrorLeavesMessagePending(t *testing.T) {
	serializer := invoiceSerializer()
	client := &fakeStreamClient{}
	msg := invoiceMessage(t, serializer, "1-0", 1)

	attempts := 0
	handler := HandlerFunc(func(_ context.Context, _ shared.DomainEvent, _ Message) error {
		attempts++
		if attempts == 1 {
			return errors.New("projection table unavailable")
		}
		return nil
	})

	consumer := newTestConsumer(client, serializer, handler)

	consumer.processMessage(context.Background(), msg)
	assert.Empty(t, client.ackedIDs())
	assert.Equal(t, int64(1), consumer.Stats().Failed)

	// Redelivery of the same message succeeds and acks
	msg.Deliveries = 2
	consumer.processMessage(context.Background(), msg)
	assert.Equal(t, []string{"1-0"}, client.ackedIDs())
	assert.Equal(t, int64(1), consumer.Stats().Processed)
}

func TestConsumer_HandlerPanicDoesNotAck(t *testing.T) {
	serializer := invoiceSerializer()
	client := &fakeStreamClient{}
	msg := invoiceMessage(t, serializer, "1-0", 1)

	handler := HandlerFunc(func(_ context.Context, _ shared.DomainEvent, _ Message) error {
		panic("nil map write")
	})

	consumer := newTestConsumer(client, serializer, handler)
	consumer.processMessage(context.Background(), msg)

	assert.Empty(t, client.ackedIDs())
	assert.Equal(t, int64(1), consumer.Stats().Failed)
}

func TestConsumer_DeadLettersAfterMaxDeliveries(t *testing.T) {
	serializer := invoiceSerializer()
	client := &fakeStreamClient{}
	msg := invoiceMessage(t, serializer, "1-0", 6)

	handler := HandlerFunc(func(_ context.Context, _ shared.DomainEvent, _ Message) error {
		t.Fatal("handler must not run for dead-lettered messages")
		return nil
	})

	consumer := newTestConsumer(client, serializer, handler)
	consumer.processMessage(context.Background(), msg)

	require.Len(t, client.dead, 1)
	assert.Equal(t, msg.EventID, client.dead[0].EventID)
	assert.Equal(t, []string{"1-0"}, client.ackedIDs())
	assert.Equal(t, int64(1), consumer.Stats().DeadLettered)
}

func TestConsumer_UnknownEventTypeIsAckedAndSkipped(t *testing.T) {
	serializer := invoiceSerializer()
	client := &fakeStreamClient{}
	msg := Message{
		ID:        "1-0",
		EventID:   uuid.NewString(),
		EventType: "SomethingElse",
		Data:      []byte(`{}`),
	}

	handler := HandlerFunc(func(_ context.Context, _ shared.DomainEvent, _ Message) error {
		t.Fatal("handler must not run for unknown event types")
		return nil
	})

	consumer := newTestConsumer(client, serializer, handler)
	consumer.processMessage(context.Background(), msg)

	assert.Equal(t, []string{"1-0"}, client.ackedIDs())
	assert.Equal(t, int64(0), consumer.Stats().Processed)
}
