package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	StoreBackend  string
	PebbleDir     string
	DatabaseURL   string
	MigrationsDir string

	KafkaBrokers       []string
	KafkaOrdersTopic   string
	KafkaEventsTopic   string
	KafkaDLQTopic      string
	KafkaConsumerGroup string
	KafkaMinBytes      int
	KafkaMaxBytes      int

	IngestMaxAttempts  int
	IngestRetryBackoff time.Duration

	DLQAlarmThreshold int
	DLQAlarmWindow    time.Duration
	AlertWebhookURL   string

	CacheWarmLimit  int
	ShutdownTimeout time.Duration
}

func Load() (Config, error) {
	var c Config

	c.HTTPAddr = getenv("APP_HTTP_ADDR", ":8081")

	c.StoreBackend = getenv("STORE_BACKEND", "pebble")
	switch c.StoreBackend {
	case "pebble":
		c.PebbleDir = getenv("PEBBLE_DIR", "data/orders")
	case "postgres":
		c.DatabaseURL = os.Getenv("DATABASE_URL")
		if c.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for STORE_BACKEND=postgres")
		}
		c.MigrationsDir = getenv("MIGRATIONS_DIR", "internal/migrations")
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q (want pebble or postgres)", c.StoreBackend)
	}

	brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokers == "" {
		return Config{}, errors.New("KAFKA_BROKERS is required")
	}
	c.KafkaBrokers = splitCSV(brokers)

	c.KafkaOrdersTopic = getenv("KAFKA_ORDERS_TOPIC", "orders")
	c.KafkaEventsTopic = getenv("KAFKA_EVENTS_TOPIC", "orders.created")
	c.KafkaDLQTopic = getenv("KAFKA_DLQ_TOPIC", "orders.dlq")
	c.KafkaConsumerGroup = getenv("KAFKA_CONSUMER_GROUP", "orderpipe")
	c.KafkaMinBytes = getenvInt("KAFKA_MIN_BYTES", 1e3)
	c.KafkaMaxBytes = getenvInt("KAFKA_MAX_BYTES", 10e6)

	c.IngestMaxAttempts = getenvInt("INGEST_MAX_ATTEMPTS", 3)
	c.IngestRetryBackoff = getenvDuration("INGEST_RETRY_BACKOFF", 500*time.Millisecond)

	c.DLQAlarmThreshold = getenvInt("DLQ_ALARM_THRESHOLD", 5)
	c.DLQAlarmWindow = getenvDuration("DLQ_ALARM_WINDOW", time.Minute)
	c.AlertWebhookURL = strings.TrimSpace(os.Getenv("ALERT_WEBHOOK_URL"))

	c.CacheWarmLimit = getenvInt("CACHE_WARM_LIMIT", 100)
	c.ShutdownTimeout = getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)

	return c, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
