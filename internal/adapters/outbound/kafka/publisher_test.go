package kafkaout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"orderpipe/internal/core/domain"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestEventPublisher_KeyAndPayload(t *testing.T) {
	w := &fakeWriter{}
	p := NewEventPublisherWith(w)

	err := p.PublishOrderCreated(context.Background(), domain.OrderCreated{OrderID: "1", Item: "burger"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	require.Equal(t, []byte("1"), w.msgs[0].Key)

	var ev domain.OrderCreated
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	require.Equal(t, domain.OrderCreated{OrderID: "1", Item: "burger"}, ev)
}

func TestDeadLetterWriter_PayloadUntouched(t *testing.T) {
	w := &fakeWriter{}
	d := NewDeadLetterWriterWith(w)

	original := []byte(`{"body": {"orderId": "", "item": "burger"}}`)
	err := d.Publish(context.Background(), original, domain.ReasonMissingField, 1)
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	require.Equal(t, original, w.msgs[0].Value)

	headers := map[string]string{}
	for _, h := range w.msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, "MISSING_FIELD", headers["reason"])
	require.Equal(t, "1", headers["attempts"])
	require.NotEmpty(t, headers["failed_at"])
}

func TestDeadLetterWriter_CountsPublished(t *testing.T) {
	w := &fakeWriter{}
	d := NewDeadLetterWriterWith(w)

	require.Equal(t, int64(0), d.Published())
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Publish(context.Background(), []byte(`x`), domain.ReasonMalformedEvent, 1))
	}
	require.Equal(t, int64(3), d.Published())
}

func TestDeadLetterWriter_WriteFailureNotCounted(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	d := NewDeadLetterWriterWith(w)

	err := d.Publish(context.Background(), []byte(`x`), domain.ReasonMalformedEvent, 1)
	require.Error(t, err)
	require.Equal(t, int64(0), d.Published())
}
