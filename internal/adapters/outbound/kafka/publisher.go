package kafkaout

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"orderpipe/internal/core/domain"
	"orderpipe/internal/ports/outbound"
)

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
}

// EventPublisher announces successfully created orders on the events
// topic, keyed by orderId.
type EventPublisher struct {
	writer messageWriter
}

func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	return &EventPublisher{writer: newWriter(brokers, topic)}
}

// NewEventPublisherWith is only for tests to inject a fake writer.
func NewEventPublisherWith(w messageWriter) *EventPublisher {
	return &EventPublisher{writer: w}
}

func (p *EventPublisher) PublishOrderCreated(ctx context.Context, ev domain.OrderCreated) error {
	b, err := json.Marshal(&ev)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.OrderID), Value: b})
}

// DeadLetterWriter forwards rejected events to the dead-letter topic.
// The payload is the original event, byte for byte; reason, attempt
// count and timestamp ride along as headers.
type DeadLetterWriter struct {
	writer    messageWriter
	published atomic.Int64
}

func NewDeadLetterWriter(brokers []string, topic string) *DeadLetterWriter {
	return &DeadLetterWriter{writer: newWriter(brokers, topic)}
}

// NewDeadLetterWriterWith is only for tests to inject a fake writer.
func NewDeadLetterWriterWith(w messageWriter) *DeadLetterWriter {
	return &DeadLetterWriter{writer: w}
}

func (d *DeadLetterWriter) Publish(ctx context.Context, payload []byte, reason domain.Reason, attempts int) error {
	msg := kafka.Message{
		Value: payload,
		Headers: []kafka.Header{
			{Key: "reason", Value: []byte(reason)},
			{Key: "attempts", Value: []byte(strconv.Itoa(attempts))},
			{Key: "failed_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("dead letter write: %w", err)
	}
	d.published.Add(1)
	return nil
}

func (d *DeadLetterWriter) Published() int64 {
	return d.published.Load()
}

var (
	_ outbound.EventPublisher = (*EventPublisher)(nil)
	_ outbound.DeadLetterSink = (*DeadLetterWriter)(nil)
)
