package kafkain

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"orderpipe/internal/core/domain"
	"orderpipe/internal/metrics"
	"orderpipe/internal/ports/outbound"
)

// Handler processes one raw event value.
type Handler func(ctx context.Context, value []byte) error

// messageReader abstracts kafka.Reader for testability.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int

	// MaxAttempts bounds in-place retries for transient failures.
	// Permanent rejections never consume retry budget.
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Consumer drives one topic through a handler with explicit
// retry-then-forward routing: permanent rejections go straight to the
// dead-letter sink, transient failures retry up to the budget first.
// Every fetched message is committed exactly once its routing is
// settled, so a rejected event never silently disappears.
type Consumer struct {
	reader  messageReader
	handle  Handler
	dlq     outbound.DeadLetterSink
	mx      *metrics.Registry
	topic   string
	retries int
	backoff time.Duration
}

func NewConsumer(cfg ConsumerConfig, handle Handler, dlq outbound.DeadLetterSink, mx *metrics.Registry) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return newConsumer(r, cfg, handle, dlq, mx)
}

// NewConsumerWith is only for tests to inject a fake reader.
func NewConsumerWith(reader messageReader, cfg ConsumerConfig, handle Handler, dlq outbound.DeadLetterSink, mx *metrics.Registry) *Consumer {
	return newConsumer(reader, cfg, handle, dlq, mx)
}

func newConsumer(reader messageReader, cfg ConsumerConfig, handle Handler, dlq outbound.DeadLetterSink, mx *metrics.Registry) *Consumer {
	retries := cfg.MaxAttempts
	if retries < 1 {
		retries = 1
	}
	return &Consumer{
		reader:  reader,
		handle:  handle,
		dlq:     dlq,
		mx:      mx,
		topic:   cfg.Topic,
		retries: retries,
		backoff: cfg.RetryBackoff,
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			// Normal shutdown path
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("[kafka] %s: fetch error: %v", c.topic, err)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		c.mx.EventsReceived.Inc()
		start := time.Now()
		attempts, herr := c.process(ctx, msg.Value)
		c.mx.IngestLatency.Observe(time.Since(start).Seconds())

		if herr != nil {
			reason := domain.ReasonFor(herr)
			c.mx.EventsRejected.WithLabelValues(string(reason)).Inc()
			log.Printf("[kafka] %s: rejected (reason=%s attempts=%d) key=%s err=%v",
				c.topic, reason, attempts, string(msg.Key), herr)

			if err := c.dlq.Publish(ctx, msg.Value, reason, attempts); err != nil {
				// No commit: the event must land in the dead-letter
				// channel before we let go of it.
				log.Printf("[kafka] %s: dead letter publish failed (no commit): %v", c.topic, err)
				time.Sleep(1 * time.Second)
				continue
			}
			c.mx.DeadLettered.Inc()
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("[kafka] %s: commit error: %v", c.topic, err)
		}
	}
}

// process runs the handler with in-place retries for transient
// failures. It reports how many attempts were spent.
func (c *Consumer) process(ctx context.Context, value []byte) (int, error) {
	var err error
	for attempt := 1; attempt <= c.retries; attempt++ {
		err = c.handle(ctx, value)
		if err == nil {
			return attempt, nil
		}
		if domain.IsPermanent(err) {
			return attempt, err
		}
		if attempt < c.retries && c.backoff > 0 {
			select {
			case <-ctx.Done():
				return attempt, err
			case <-time.After(c.backoff):
			}
		}
	}
	return c.retries, err
}
