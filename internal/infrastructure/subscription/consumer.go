package subscription

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hisabix/backend/internal/domain/shared"
	"github.com/hisabix/backend/internal/infrastructure/eventlog"
)

// Handler processes one delivered event. Delivery is at least once:
// handlers must be idempotent. Returning an error leaves the message
// pending for redelivery.
type Handler interface {
	Handle(ctx context.Context, event shared.DomainEvent, msg Message) error
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, event shared.DomainEvent, msg Message) error

// Handle calls the function
func (f HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent, msg Message) error {
	return f(ctx, event, msg)
}

// ConsumerConfig holds configuration for a subscription consumer
type ConsumerConfig struct {
	Stream        string // category stream, e.g. "events:invoice"
	Group         string
	Consumer      string // consumer name within the group
	BatchSize     int64
	Block         time.Duration
	ClaimInterval time.Duration
	ClaimMinIdle  time.Duration
	MaxDeliveries int64
}

// DefaultConsumerConfig returns default configuration for a group
// reading the given category stream
func DefaultConsumerConfig(stream, group, consumer string) ConsumerConfig {
	return ConsumerConfig{
		Stream:        stream,
		Group:         group,
		Consumer:      consumer,
		BatchSize:     50,
		Block:         2 * time.Second,
		ClaimInterval: 30 * time.Second,
		ClaimMinIdle:  1 * time.Minute,
		MaxDeliveries: 5,
	}
}

// ConsumerStats is a snapshot of consumer counters
type ConsumerStats struct {
	Processed    int64
	Failed       int64
	DeadLettered int64
}

// Consumer is one member of a competing-consumer group on a category
// stream. It acknowledges messages only after the handler succeeds, so
// a crash before the ack leads to redelivery, never loss. Handler
// failures and panics never stop the loop.
type Consumer struct {
	client     StreamClient
	serializer *eventlog.EventSerializer
	handler    Handler
	config     ConsumerConfig
	logger     *zap.Logger

	processed    atomic.Int64
	failed       atomic.Int64
	deadLettered atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer creates a new subscription consumer
func NewConsumer(client StreamClient, serializer *eventlog.EventSerializer, handler Handler, config ConsumerConfig, logger *zap.Logger) *Consumer {
	return &Consumer{
		client:     client,
		serializer: serializer,
		handler:    handler,
		config:     config,
		logger:     logger,
	}
}

// Start creates the group if needed and starts the consume and claim
// loops
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.client.CreateGroup(ctx, c.config.Stream, c.config.Group); err != nil {
		return fmt.Errorf("create group %s on stream %s: %w", c.config.Group, c.config.Stream, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(2)
	go c.consumeLoop(ctx)
	go c.claimLoop(ctx)

	c.logger.Info("subscription consumer started",
		zap.String("stream", c.config.Stream),
		zap.String("group", c.config.Group),
		zap.String("consumer", c.config.Consumer),
	)
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("subscription consumer stopped",
			zap.String("group", c.config.Group),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the consumer counters
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Processed:    c.processed.Load(),
		Failed:       c.failed.Load(),
		DeadLettered: c.deadLettered.Load(),
	}
}

// consumeLoop reads and processes new messages
func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := c.client.ReadGroup(ctx, c.config.Stream, c.config.Group, c.config.Consumer, c.config.BatchSize, c.config.Block)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to read from stream",
				zap.String("stream", c.config.Stream),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, msg := range messages {
			c.processMessage(ctx, msg)
		}
	}
}

// claimLoop periodically takes over stale pending messages so that
// deliveries abandoned by crashed consumers are retried
func (c *Consumer) claimLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			messages, err := c.client.Claim(ctx, c.config.Stream, c.config.Group, c.config.Consumer, c.config.ClaimMinIdle, c.config.BatchSize)
			if err != nil {
				c.logger.Error("failed to claim pending messages",
					zap.String("stream", c.config.Stream),
					zap.Error(err),
				)
				continue
			}
			for _, msg := range messages {
				c.processMessage(ctx, msg)
			}
		}
	}
}

// processMessage handles one delivery end to end
func (c *Consumer) processMessage(ctx context.Context, msg Message) {
	if msg.Deliveries > c.config.MaxDeliveries {
		c.logger.Warn("message exceeded max deliveries, dead-lettering",
			zap.String("event_id", msg.EventID),
			zap.String("event_type", msg.EventType),
			zap.String("stream", msg.Stream),
			zap.Int64("deliveries", msg.Deliveries),
		)
		if err := c.client.DeadLetter(ctx, c.config.Stream, c.config.Group, msg); err != nil {
			c.logger.Error("failed to dead-letter message",
				zap.String("event_id", msg.EventID),
				zap.Error(err),
			)
			return
		}
		c.deadLettered.Add(1)
		return
	}

	event, err := c.serializer.Deserialize(msg.EventType, msg.Data)
	if err != nil {
		// An event type this group does not know is not an error for
		// the group; acknowledge and move on.
		c.logger.Debug("skipping unhandled event type",
			zap.String("event_type", msg.EventType),
			zap.String("event_id", msg.EventID),
		)
		if ackErr := c.client.Ack(ctx, c.config.Stream, c.config.Group, msg.ID); ackErr != nil {
			c.logger.Error("failed to ack skipped message", zap.Error(ackErr))
		}
		return
	}

	if err := c.invokeHandler(ctx, event, msg); err != nil {
		c.failed.Add(1)
		c.logger.Error("handler failed, message stays pending",
			zap.String("event_id", msg.EventID),
			zap.String("event_type", msg.EventType),
			zap.String("stream", msg.Stream),
			zap.Int64("revision", msg.Revision),
			zap.Int64("deliveries", msg.Deliveries),
			zap.Error(err),
		)
		return
	}

	if err := c.client.Ack(ctx, c.config.Stream, c.config.Group, msg.ID); err != nil {
		c.logger.Error("failed to ack message",
			zap.String("event_id", msg.EventID),
			zap.Error(err),
		)
		return
	}
	c.processed.Add(1)
}

// invokeHandler calls the handler, converting panics into errors
func (c *Consumer) invokeHandler(ctx context.Context, event shared.DomainEvent, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return c.handler.Handle(ctx, event, msg)
}
