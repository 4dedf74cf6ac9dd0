package subscription

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeadLetterSuffix is appended to a category stream's name to form its
// dead-letter stream
const DeadLetterSuffix = ":dead"

// Message is one delivery from a category stream
type Message struct {
	ID         string // broker entry ID, used for acking
	EventID    string
	EventType  string
	Stream     string // originating log stream
	Revision   int64
	GlobalSeq  int64
	Data       []byte
	Metadata   []byte
	Deliveries int64
}

// StreamClient abstracts the broker operations the consumer needs
type StreamClient interface {
	// CreateGroup creates a consumer group reading the stream from the
	// beginning. Creating an existing group is a no-op.
	CreateGroup(ctx context.Context, stream, group string) error

	// ReadGroup blocks up to block for new messages for the group
	ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// Ack acknowledges processed messages
	Ack(ctx context.Context, stream, group string, ids ...string) error

	// Claim takes over pending messages idle for at least minIdle,
	// reporting their delivery counts
	Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Message, error)

	// DeadLetter moves a message to the stream's dead-letter stream and
	// acknowledges it
	DeadLetter(ctx context.Context, stream, group string, msg Message) error
}

// RedisStreamClient implements StreamClient on Redis streams with
// consumer groups
type RedisStreamClient struct {
	rdb redis.UniversalClient
}

// NewRedisStreamClient creates a new Redis-backed stream client
func NewRedisStreamClient(rdb redis.UniversalClient) *RedisStreamClient {
	return &RedisStreamClient{rdb: rdb}
}

// CreateGroup creates a consumer group, tolerating one that already
// exists
func (c *RedisStreamClient) CreateGroup(ctx context.Context, stream, group string) error {
	err := c.rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

// ReadGroup reads new messages for the group
func (c *RedisStreamClient) ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var messages []Message
	for _, s := range streams {
		for _, raw := range s.Messages {
			messages = append(messages, messageFromRaw(raw, 1))
		}
	}
	return messages, nil
}

// Ack acknowledges processed messages
func (c *RedisStreamClient) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.rdb.XAck(ctx, stream, group, ids...).Err()
}

// Claim takes over stale pending messages from any consumer in the
// group
func (c *RedisStreamClient) Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Message, error) {
	pending, err := c.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  group,
		Idle:   minIdle,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	ids := make([]string, len(pending))
	deliveries := make(map[string]int64, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
		deliveries[p.ID] = p.RetryCount
	}

	claimed, err := c.rdb.XClaim(ctx, &redis.XClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	messages := make([]Message, 0, len(claimed))
	for _, raw := range claimed {
		messages = append(messages, messageFromRaw(raw, deliveries[raw.ID]))
	}
	return messages, nil
}

// DeadLetter parks an undeliverable message and acknowledges it so the
// group can make progress
func (c *RedisStreamClient) DeadLetter(ctx context.Context, stream, group string, msg Message) error {
	values := map[string]interface{}{
		"event_id":   msg.EventID,
		"event_type": msg.EventType,
		"stream":     msg.Stream,
		"revision":   msg.Revision,
		"global_seq": msg.GlobalSeq,
		"data":       string(msg.Data),
		"group":      group,
		"deliveries": msg.Deliveries,
	}
	if len(msg.Metadata) > 0 {
		values["metadata"] = string(msg.Metadata)
	}

	if err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream + DeadLetterSuffix,
		Values: values,
	}).Err(); err != nil {
		return err
	}
	return c.rdb.XAck(ctx, stream, group, msg.ID).Err()
}

// messageFromRaw maps a broker entry onto a Message
func messageFromRaw(raw redis.XMessage, deliveries int64) Message {
	msg := Message{
		ID:         raw.ID,
		Deliveries: deliveries,
	}
	if v, ok := raw.Values["event_id"].(string); ok {
		msg.EventID = v
	}
	if v, ok := raw.Values["event_type"].(string); ok {
		msg.EventType = v
	}
	if v, ok := raw.Values["stream"].(string); ok {
		msg.Stream = v
	}
	if v, ok := raw.Values["revision"].(string); ok {
		msg.Revision, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := raw.Values["global_seq"].(string); ok {
		msg.GlobalSeq, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := raw.Values["data"].(string); ok {
		msg.Data = []byte(v)
	}
	if v, ok := raw.Values["metadata"].(string); ok {
		msg.Metadata = []byte(v)
	}
	return msg
}

// Ensure RedisStreamClient implements StreamClient
var _ StreamClient = (*RedisStreamClient)(nil)
