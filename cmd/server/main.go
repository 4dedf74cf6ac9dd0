package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hisabix/backend/internal/domain/billing"
	"github.com/hisabix/backend/internal/domain/ledger"
	"github.com/hisabix/backend/internal/infrastructure/config"
	"github.com/hisabix/backend/internal/infrastructure/eventlog"
	"github.com/hisabix/backend/internal/infrastructure/logger"
	"github.com/hisabix/backend/internal/infrastructure/persistence"
	"github.com/hisabix/backend/internal/infrastructure/projection"
	"github.com/hisabix/backend/internal/infrastructure/subscription"
	"github.com/hisabix/backend/internal/infrastructure/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Hisabix event backbone",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	ctx := context.Background()

	// Initialize telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Initialize database connection with zap-backed GORM logger
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to ping Redis", zap.Error(err))
	}
	log.Info("Redis connected successfully")

	// Register all domain event types for (de)serialization
	serializer := eventlog.NewEventSerializer()
	projection.RegisterDomainEvents(serializer)

	// Start the relay that publishes appended events to category streams
	var relay *eventlog.Relay
	if cfg.EventLog.RelayEnabled {
		relay = eventlog.NewRelay(db.DB, rdb, eventlog.RelayConfig{
			BatchSize:    cfg.EventLog.RelayBatchSize,
			PollInterval: cfg.EventLog.RelayPollInterval,
		}, log)
		if err := relay.Start(ctx); err != nil {
			log.Fatal("Failed to start event relay", zap.Error(err))
		}
		log.Info("Event relay started",
			zap.Int("batch_size", cfg.EventLog.RelayBatchSize),
			zap.Duration("poll_interval", cfg.EventLog.RelayPollInterval),
		)
	}

	// Start one projection consumer per aggregate category
	consumerName := cfg.Subscription.Consumer
	if consumerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "consumer"
		}
		consumerName = hostname
	}

	streamClient := subscription.NewRedisStreamClient(rdb)
	consumers := []*subscription.Consumer{
		newProjectionConsumer(streamClient, serializer, billing.AggregateTypeInvoice,
			projection.NewInvoiceProjection(db.DB, log), cfg, consumerName, log),
		newProjectionConsumer(streamClient, serializer, billing.AggregateTypePayment,
			projection.NewPaymentProjection(db.DB, log), cfg, consumerName, log),
		newProjectionConsumer(streamClient, serializer, ledger.AggregateTypeJournalEntry,
			projection.NewJournalEntryProjection(db.DB, log), cfg, consumerName, log),
		newProjectionConsumer(streamClient, serializer, ledger.AggregateTypeChartOfAccount,
			projection.NewAccountProjection(db.DB, log), cfg, consumerName, log),
	}
	for _, c := range consumers {
		if err := c.Start(ctx); err != nil {
			log.Fatal("Failed to start projection consumer", zap.Error(err))
		}
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, c := range consumers {
		if err := c.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping projection consumer", zap.Error(err))
		}
	}
	if relay != nil {
		if err := relay.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping event relay", zap.Error(err))
		}
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

// newProjectionConsumer wires a projection handler to its category stream
func newProjectionConsumer(client subscription.StreamClient, serializer *eventlog.EventSerializer,
	category string, handler subscription.Handler, cfg *config.Config, consumerName string, log *zap.Logger) *subscription.Consumer {
	consumerCfg := subscription.ConsumerConfig{
		Stream:        eventlog.StreamPrefix + category,
		Group:         cfg.Subscription.Group,
		Consumer:      consumerName,
		BatchSize:     int64(cfg.Subscription.BatchSize),
		Block:         cfg.Subscription.Block,
		ClaimInterval: cfg.Subscription.ClaimInterval,
		ClaimMinIdle:  cfg.Subscription.ClaimMinIdle,
		MaxDeliveries: int64(cfg.Subscription.MaxDeliveries),
	}
	return subscription.NewConsumer(client, serializer, handler, consumerCfg, log)
}
