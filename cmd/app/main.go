package main

import (
	"context"
	"log"
	"time"

	httpin "orderpipe/internal/adapters/inbound/http"
	kafkain "orderpipe/internal/adapters/inbound/kafka"
	"orderpipe/internal/adapters/outbound/alert"
	"orderpipe/internal/adapters/outbound/cache"
	kafkaout "orderpipe/internal/adapters/outbound/kafka"
	"orderpipe/internal/adapters/outbound/pebbledb"
	"orderpipe/internal/adapters/outbound/postgres"
	"orderpipe/internal/app/config"
	"orderpipe/internal/app/runtime"
	"orderpipe/internal/core/alarm"
	"orderpipe/internal/core/domain"
	"orderpipe/internal/core/service"
	"orderpipe/internal/metrics"
	"orderpipe/internal/ports/outbound"
)

func main() {
	ctx, stop := runtime.NotifyContext(context.Background())
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	mx := metrics.NewRegistry()

	var store outbound.OrderStore
	switch cfg.StoreBackend {
	case "postgres":
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db init: %v", err)
		}
		defer db.Close()

		migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := postgres.RunMigrations(migCtx, db.Pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations: %v", err)
		}
		store = postgres.NewOrderStore(db.Pool)
	default:
		kv, err := pebbledb.New(cfg.PebbleDir)
		if err != nil {
			log.Fatalf("kv init: %v", err)
		}
		defer func() { _ = kv.Close() }()
		store = kv
	}

	dlq := kafkaout.NewDeadLetterWriter(cfg.KafkaBrokers, cfg.KafkaDLQTopic)
	events := kafkaout.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic)

	memCache := cache.NewMemoryCache()
	svc := service.NewOrderService(store, memCache, events, mx)

	// warm cache
	if n, err := svc.WarmCache(ctx, cfg.CacheWarmLimit); err != nil {
		log.Printf("[warmup] failed: %v", err)
	} else {
		log.Printf("[warmup] cache loaded: %d orders (cache size=%d)", n, memCache.Len(ctx))
	}

	// HTTP
	handlers := httpin.NewHandlers(svc, dlq, mx)
	mux := httpin.NewMux(handlers, svc, mx.Handler())
	httpSrv := runtime.NewHTTPServer(cfg.HTTPAddr, mux)
	httpSrv.Start()

	// inbound order events -> ingestion handler
	ordersConsumer := kafkain.NewConsumer(kafkain.ConsumerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOrdersTopic,
		GroupID:      cfg.KafkaConsumerGroup,
		MinBytes:     cfg.KafkaMinBytes,
		MaxBytes:     cfg.KafkaMaxBytes,
		MaxAttempts:  cfg.IngestMaxAttempts,
		RetryBackoff: cfg.IngestRetryBackoff,
	}, svc.ProcessEvent, dlq, mx)
	defer func() { _ = ordersConsumer.Close() }()
	go ordersConsumer.Run(ctx)

	// OrderCreated events -> mark processed
	statusConsumer := kafkain.NewConsumer(kafkain.ConsumerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaEventsTopic,
		GroupID:      cfg.KafkaConsumerGroup + ".status",
		MinBytes:     cfg.KafkaMinBytes,
		MaxBytes:     cfg.KafkaMaxBytes,
		MaxAttempts:  cfg.IngestMaxAttempts,
		RetryBackoff: cfg.IngestRetryBackoff,
	}, func(ctx context.Context, value []byte) error {
		ev, err := domain.DecodeOrderCreated(value)
		if err != nil {
			return err
		}
		return svc.MarkProcessed(ctx, ev.OrderID)
	}, dlq, mx)
	defer func() { _ = statusConsumer.Close() }()
	go statusConsumer.Run(ctx)

	// dead-letter depth alarm
	var notifier alarm.Notifier = alert.LogNotifier{}
	if cfg.AlertWebhookURL != "" {
		notifier = alert.NewWebhookNotifier(cfg.AlertWebhookURL)
	}
	dlqAlarm := alarm.New("orders-dlq-depth", dlq.Published, int64(cfg.DLQAlarmThreshold), cfg.DLQAlarmWindow, notifier)
	go dlqAlarm.Run(ctx)

	<-ctx.Done()
	log.Printf("[shutdown] signal received")

	if err := httpSrv.Shutdown(context.Background(), cfg.ShutdownTimeout); err != nil {
		log.Printf("[shutdown] http: %v", err)
	}
	log.Printf("[shutdown] bye")
}
