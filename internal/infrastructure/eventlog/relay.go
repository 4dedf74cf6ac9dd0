package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StreamPrefix is the Redis stream name prefix for published categories.
// A committed event on stream "tenant-X-invoice-Y" lands on Redis stream
// "events:invoice".
const StreamPrefix = "events:"

// StreamAppender is the subset of the Redis client used by the relay
type StreamAppender interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RelayConfig holds configuration for the log relay
type RelayConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// DefaultRelayConfig returns default configuration
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:    100,
		PollInterval: 1 * time.Second,
	}
}

// Relay publishes committed log events to Redis streams for consumer
// groups, one stream per aggregate category. It runs as a single writer
// and publishes in global sequence order, which preserves per-stream
// ordering for subscribers.
type Relay struct {
	db     *gorm.DB
	rdb    StreamAppender
	config RelayConfig
	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRelay creates a new log relay
func NewRelay(db *gorm.DB, rdb StreamAppender, config RelayConfig, logger *zap.Logger) *Relay {
	return &Relay{
		db:     db,
		rdb:    rdb,
		config: config,
		logger: logger,
	}
}

// Start starts the background publishing loop
func (r *Relay) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.publishLoop(ctx)

	r.logger.Info("event relay started",
		zap.Int("batch_size", r.config.BatchSize),
		zap.Duration("poll_interval", r.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the relay
func (r *Relay) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("event relay stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publishLoop is the main publishing loop
func (r *Relay) publishLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for r.publishBatch(ctx) {
			}
		}
	}
}

// publishBatch publishes one batch of unpublished events. Returns true
// when a full batch was published and more work may be pending.
func (r *Relay) publishBatch(ctx context.Context) bool {
	var rows []StreamEvent
	err := r.db.WithContext(ctx).
		Where("published = ?", false).
		Order("global_seq ASC").
		Limit(r.config.BatchSize).
		Find(&rows).Error
	if err != nil {
		r.logger.Error("failed to load unpublished events", zap.Error(err))
		return false
	}
	if len(rows) == 0 {
		return false
	}

	for _, row := range rows {
		if err := r.publishEvent(ctx, row); err != nil {
			// Stop at the first failure so global order is preserved;
			// the row stays unpublished and is retried next tick.
			r.logger.Error("failed to publish event",
				zap.String("event_id", row.EventID.String()),
				zap.String("stream", row.StreamName),
				zap.Int64("revision", row.Revision),
				zap.Error(err),
			)
			return false
		}

		if err := r.db.WithContext(ctx).
			Model(&StreamEvent{}).
			Where("global_seq = ?", row.GlobalSeq).
			Update("published", true).Error; err != nil {
			r.logger.Error("failed to mark event as published",
				zap.String("event_id", row.EventID.String()),
				zap.Error(err),
			)
			return false
		}
	}

	return len(rows) == r.config.BatchSize
}

// publishEvent appends a single event to its category stream
func (r *Relay) publishEvent(ctx context.Context, row StreamEvent) error {
	values := map[string]interface{}{
		"event_id":   row.EventID.String(),
		"event_type": row.EventType,
		"stream":     row.StreamName,
		"revision":   row.Revision,
		"global_seq": row.GlobalSeq,
		"data":       string(row.Data),
	}
	if len(row.Metadata) > 0 {
		values["metadata"] = string(row.Metadata)
	}

	return r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamPrefix + row.Category,
		Values: values,
	}).Err()
}
