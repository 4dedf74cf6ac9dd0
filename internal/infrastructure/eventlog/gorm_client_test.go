package eventlog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupEventLog(t *testing.T) *GormClient {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	client := NewGormClient(db)
	require.NoError(t, client.Migrate())
	return client
}

func proposed(t *testing.T, eventType string, payload interface{}) ProposedEvent {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return ProposedEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		Data:      data,
	}
}

func testStream() string {
	return "tenant-" + uuid.NewString() + "-invoice-" + uuid.NewString()
}

func TestGormClient_AppendAndReadForward(t *testing.T) {
	client := setupEventLog(t)
	ctx := context.Background()
	stream := testStream()

	last, err := client.Append(ctx, stream, RevisionNoStream,
		proposed(t, "InvoiceCreated", map[string]string{"number": "INV-1"}),
		proposed(t, "InvoiceLineItemAdded", map[string]string{"desc": "widget"}),
		proposed(t, "InvoiceApproved", map[string]string{"mushak": "MUS-1"}),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)

	events, err := client.ReadForward(ctx, stream, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, event := range events {
		assert.Equal(t, int64(i), event.Revision)
		assert.Equal(t, stream, event.Stream)
	}
	assert.Equal(t, "InvoiceCreated", events[0].EventType)
	assert.JSONEq(t, `{"number":"INV-1"}`, string(events[0].Data))
}

func TestGormClient_ReadForward_FromAndLimit(t *testing.T) {
	client := setupEventLog(t)
	ctx := context.Background()
	stream := testStream()

	_, err := client.Append(ctx, stream, RevisionNoStream,
		proposed(t, "E0", nil), proposed(t, "E1", nil), proposed(t, "E2", nil))
	require.NoError(t, err)

	events, err := client.ReadForward(ctx, stream, 1, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].Revision)
	assert.Equal(t, "E1", events[0].EventType)

	// Reading past the end of an existing stream yields an empty page
	events, err = client.ReadForward(ctx, stream, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGormClient_ReadForward_StreamNotFound(t *testing.T) {
	client := setupEventLog(t)

	_, err := client.ReadForward(context.Background(), testStream(), 0, 0)
	assert.ErrorIs(t, err, ErrStreamNotFound)
}

func TestGormClient_Append_NoStreamConflict(t *testing.T) {
	client := setupEventLog(t)
	ctx := context.Background()
	stream := testStream()

	_, err := client.Append(ctx, stream, RevisionNoStream, proposed(t, "E0", nil))
	require.NoError(t, err)

	_, err = client.Append(ctx, stream, RevisionNoStream, proposed(t, "E1", nil))
	var conflict *RevisionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, stream, conflict.Stream)
	assert.Equal(t, RevisionNoStream, conflict.Expected)
	assert.Equal(t, int64(0), conflict.Actual)
}

func TestGormClient_Append_ExactRevision(t *testing.T) {
	client := setupEventLog(t)
	ctx := context.Background()
	stream := testStream()

	_, err := client.Append(ctx, stream, RevisionNoStream, proposed(t, "E0", nil), proposed(t, "E1", nil))
	require.NoError(t, err)

	last, err := client.Append(ctx, stream, Exact(1), proposed(t, "E2", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)

	// Stale expectation loses
	_, err = client.Append(ctx, stream, Exact(1), proposed(t, "E3", nil))
	var conflict *RevisionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, Exact(1), conflict.Expected)
	assert.Equal(t, int64(2), conflict.Actual)
}

func TestGormClient_Append_Any(t *testing.T) {
	client := setupEventLog(t)
	ctx := context.Background()
	stream := testStream()

	last, err := client.Append(ctx, stream, RevisionAny, proposed(t, "E0", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)

	last, err = client.Append(ctx, stream, RevisionAny, proposed(t, "E1", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1), last)
}

func TestGormClient_Append_EmptyIsNoOp(t *testing.T) {
	client := setupEventLog(t)
	ctx := context.Background()
	stream := testStream()

	_, err := client.Append(ctx, stream, RevisionNoStream, proposed(t, "E0", nil))
	require.NoError(t, err)

	last, err := client.Append(ctx, stream, RevisionAny)
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)
}

func TestGormClient_StreamIsolation(t *testing.T) {
	client := setupEventLog(t)
	ctx := context.Background()

	tenantA := uuid.NewString()
	tenantB := uuid.NewString()
	aggregateID := uuid.NewString()
	streamA := "tenant-" + tenantA + "-invoice-" + aggregateID
	streamB := "tenant-" + tenantB + "-invoice-" + aggregateID

	_, err := client.Append(ctx, streamA, RevisionNoStream, proposed(t, "A0", nil), proposed(t, "A1", nil))
	require.NoError(t, err)
	_, err = client.Append(ctx, streamB, RevisionNoStream, proposed(t, "B0", nil))
	require.NoError(t, err)

	eventsA, err := client.ReadForward(ctx, streamA, 0, 0)
	require.NoError(t, err)
	eventsB, err := client.ReadForward(ctx, streamB, 0, 0)
	require.NoError(t, err)

	assert.Len(t, eventsA, 2)
	require.Len(t, eventsB, 1)
	assert.Equal(t, "B0", eventsB[0].EventType)
}

func TestGormClient_ReadLastEvent(t *testing.T) {
	client := setupEventLog(t)
	ctx := context.Background()
	stream := testStream()

	_, err := client.ReadLastEvent(ctx, stream)
	assert.ErrorIs(t, err, ErrStreamNotFound)

	_, err = client.Append(ctx, stream, RevisionNoStream, proposed(t, "E0", nil), proposed(t, "E1", nil))
	require.NoError(t, err)

	last, err := client.ReadLastEvent(ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, int64(1), last.Revision)
	assert.Equal(t, "E1", last.EventType)
}

func TestGormClient_StreamRevision(t *testing.T) {
	client := setupEventLog(t)
	ctx := context.Background()
	stream := testStream()

	_, err := client.StreamRevision(ctx, stream)
	assert.ErrorIs(t, err, ErrStreamNotFound)

	_, err = client.Append(ctx, stream, RevisionNoStream, proposed(t, "E0", nil))
	require.NoError(t, err)

	revision, err := client.StreamRevision(ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, int64(0), revision)
}

func TestGormClient_SubscribeLive(t *testing.T) {
	client := setupEventLog(t)
	client.pollInterval = 10 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream := testStream()

	_, err := client.Append(ctx, stream, RevisionNoStream, proposed(t, "E0", nil))
	require.NoError(t, err)

	events, err := client.SubscribeLive(ctx, stream, -1)
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, int64(0), first.Revision)

	_, err = client.Append(ctx, stream, Exact(0), proposed(t, "E1", nil))
	require.NoError(t, err)

	second := <-events
	assert.Equal(t, int64(1), second.Revision)
	assert.Equal(t, "E1", second.EventType)

	cancel()
	for range events {
	}
}

func TestStreamCategory(t *testing.T) {
	tenantID := uuid.NewString()
	aggregateID := uuid.NewString()

	assert.Equal(t, "invoice", streamCategory("tenant-"+tenantID+"-invoice-"+aggregateID))
	assert.Equal(t, "journalentry", streamCategory("journalentry-"+aggregateID))
	assert.Equal(t, "chartofaccount", streamCategory("tenant-"+tenantID+"-chartofaccount-"+aggregateID))
}

func TestExpectedRevision_String(t *testing.T) {
	assert.Equal(t, "any", RevisionAny.String())
	assert.Equal(t, "no-stream", RevisionNoStream.String())
	assert.Equal(t, "7", Exact(7).String())
}
