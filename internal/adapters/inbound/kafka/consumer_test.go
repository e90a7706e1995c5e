package kafkain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"orderpipe/internal/core/alarm"
	"orderpipe/internal/core/domain"
	"orderpipe/internal/metrics"
)

type fakeReader struct {
	msgs      []kafka.Message
	next      int
	committed []kafka.Message
}

func (f *fakeReader) FetchMessage(_ context.Context) (kafka.Message, error) {
	if f.next >= len(f.msgs) {
		return kafka.Message{}, context.Canceled
	}
	m := f.msgs[f.next]
	f.next++
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error { return nil }

type dlqRecord struct {
	payload  []byte
	reason   domain.Reason
	attempts int
}

type fakeDLQ struct {
	records []dlqRecord
}

func (d *fakeDLQ) Publish(_ context.Context, payload []byte, reason domain.Reason, attempts int) error {
	d.records = append(d.records, dlqRecord{payload: payload, reason: reason, attempts: attempts})
	return nil
}

func (d *fakeDLQ) Published() int64 { return int64(len(d.records)) }

func run(t *testing.T, reader *fakeReader, handle Handler, maxAttempts int) *fakeDLQ {
	t.Helper()
	dlq := &fakeDLQ{}
	c := NewConsumerWith(reader, ConsumerConfig{
		Topic:       "orders",
		MaxAttempts: maxAttempts,
	}, handle, dlq, metrics.NewRegistry())
	c.Run(context.Background())
	return dlq
}

func msg(value string) kafka.Message {
	return kafka.Message{Value: []byte(value)}
}

func TestRun_SuccessCommitsWithoutDeadLetter(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{msg(`ok`)}}

	var handled [][]byte
	dlq := run(t, reader, func(_ context.Context, v []byte) error {
		handled = append(handled, v)
		return nil
	}, 3)

	require.Len(t, handled, 1)
	require.Len(t, reader.committed, 1)
	require.Empty(t, dlq.records)
}

func TestRun_PermanentRejectionSkipsRetryBudget(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{msg(`bad`)}}

	calls := 0
	dlq := run(t, reader, func(_ context.Context, _ []byte) error {
		calls++
		return domain.ErrMalformedEvent
	}, 3)

	require.Equal(t, 1, calls, "permanent failures must not retry")
	require.Len(t, dlq.records, 1)
	require.Equal(t, []byte(`bad`), dlq.records[0].payload, "payload forwarded untouched")
	require.Equal(t, domain.ReasonMalformedEvent, dlq.records[0].reason)
	require.Equal(t, 1, dlq.records[0].attempts)
	require.Len(t, reader.committed, 1)
}

func TestRun_TransientFailureExhaustsRetryBudget(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{msg(`flaky`)}}

	calls := 0
	dlq := run(t, reader, func(_ context.Context, _ []byte) error {
		calls++
		return fmt.Errorf("db upsert: %w", domain.ErrStoreUnavailable)
	}, 3)

	require.Equal(t, 3, calls)
	require.Len(t, dlq.records, 1)
	require.Equal(t, domain.ReasonStoreUnavailable, dlq.records[0].reason)
	require.Equal(t, 3, dlq.records[0].attempts)
	require.Len(t, reader.committed, 1)
}

func TestRun_TransientFailureRecoversWithinBudget(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{msg(`flaky`)}}

	calls := 0
	dlq := run(t, reader, func(_ context.Context, _ []byte) error {
		calls++
		if calls < 2 {
			return domain.ErrStoreUnavailable
		}
		return nil
	}, 3)

	require.Equal(t, 2, calls)
	require.Empty(t, dlq.records)
	require.Len(t, reader.committed, 1)
}

type failingDLQ struct {
	fakeDLQ
	failures int
}

func (d *failingDLQ) Publish(ctx context.Context, payload []byte, reason domain.Reason, attempts int) error {
	if d.failures > 0 {
		d.failures--
		return errors.New("broker unavailable")
	}
	return d.fakeDLQ.Publish(ctx, payload, reason, attempts)
}

func TestRun_NoCommitUntilDeadLetterLands(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{msg(`bad`), msg(`bad`)}}
	dlq := &failingDLQ{failures: 1}

	c := NewConsumerWith(reader, ConsumerConfig{Topic: "orders", MaxAttempts: 1}, func(_ context.Context, _ []byte) error {
		return domain.ErrMalformedEvent
	}, dlq, metrics.NewRegistry())
	c.Run(context.Background())

	// First publish failed, so only the second fetch was committed.
	require.Len(t, reader.committed, 1)
	require.Len(t, dlq.records, 1)
}

func TestRun_RejectionBurstRaisesAlarm(t *testing.T) {
	var msgs []kafka.Message
	for i := 0; i < 5; i++ {
		msgs = append(msgs, msg(`not json`))
	}
	reader := &fakeReader{msgs: msgs}

	dlq := &fakeDLQ{}
	c := NewConsumerWith(reader, ConsumerConfig{Topic: "orders", MaxAttempts: 3}, func(_ context.Context, v []byte) error {
		_, err := domain.DecodeEnvelope(v)
		return err
	}, dlq, metrics.NewRegistry())

	notifier := &captureNotifier{}
	a := alarm.New("orders-dlq-depth", dlq.Published, 5, time.Minute, notifier)

	c.Run(context.Background())
	a.Evaluate(context.Background(), time.Now())

	require.Len(t, dlq.records, 5)
	require.Len(t, notifier.alerts, 1)
}

type captureNotifier struct {
	alerts []alarm.Alert
}

func (n *captureNotifier) Notify(_ context.Context, a alarm.Alert) error {
	n.alerts = append(n.alerts, a)
	return nil
}
