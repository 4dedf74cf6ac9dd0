package eventlog

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeStreamAppender struct {
	added   []*redis.XAddArgs
	failAll bool
}

func (f *fakeStreamAppender) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	if f.failAll {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	f.added = append(f.added, a)
	return redis.NewStringResult("1-0", nil)
}

func setupRelay(t *testing.T, appender StreamAppender) (*GormClient, *Relay) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	client := NewGormClient(db)
	require.NoError(t, client.Migrate())

	config := DefaultRelayConfig()
	config.BatchSize = 2
	return client, NewRelay(db, appender, config, zap.NewNop())
}

func TestRelay_PublishesInGlobalOrder(t *testing.T) {
	appender := &fakeStreamAppender{}
	client, relay := setupRelay(t, appender)
	ctx := context.Background()

	invoiceStream := testStream()
	_, err := client.Append(ctx, invoiceStream, RevisionNoStream,
		proposed(t, "InvoiceCreated", nil), proposed(t, "InvoiceApproved", nil))
	require.NoError(t, err)

	journalStream := "journalentry-" + invoiceStream[len(invoiceStream)-36:]
	_, err = client.Append(ctx, journalStream, RevisionNoStream, proposed(t, "JournalEntryCreated", nil))
	require.NoError(t, err)

	// Batch size is 2, so the first pass reports more work pending
	assert.True(t, relay.publishBatch(ctx))
	assert.False(t, relay.publishBatch(ctx))

	require.Len(t, appender.added, 3)
	assert.Equal(t, StreamPrefix+"invoice", appender.added[0].Stream)
	assert.Equal(t, StreamPrefix+"invoice", appender.added[1].Stream)
	assert.Equal(t, StreamPrefix+"journalentry", appender.added[2].Stream)

	assert.Equal(t, "InvoiceCreated", appender.added[0].Values.(map[string]interface{})["event_type"])
	assert.Equal(t, invoiceStream, appender.added[0].Values.(map[string]interface{})["stream"])
	assert.Equal(t, int64(0), appender.added[0].Values.(map[string]interface{})["revision"])
	assert.Equal(t, int64(1), appender.added[1].Values.(map[string]interface{})["revision"])
}

func TestRelay_DoesNotRepublish(t *testing.T) {
	appender := &fakeStreamAppender{}
	client, relay := setupRelay(t, appender)
	ctx := context.Background()

	_, err := client.Append(ctx, testStream(), RevisionNoStream, proposed(t, "E0", nil))
	require.NoError(t, err)

	relay.publishBatch(ctx)
	relay.publishBatch(ctx)

	assert.Len(t, appender.added, 1)
}

func TestRelay_RetainsEventsOnPublishFailure(t *testing.T) {
	appender := &fakeStreamAppender{failAll: true}
	client, relay := setupRelay(t, appender)
	ctx := context.Background()

	_, err := client.Append(ctx, testStream(), RevisionNoStream, proposed(t, "E0", nil))
	require.NoError(t, err)

	assert.False(t, relay.publishBatch(ctx))
	assert.Empty(t, appender.added)

	// Once the broker recovers, the same event goes out
	appender.failAll = false
	relay.publishBatch(ctx)
	assert.Len(t, appender.added, 1)
}
