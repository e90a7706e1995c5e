package alarm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	alerts []Alert
}

func (n *fakeNotifier) Notify(_ context.Context, a Alert) error {
	n.alerts = append(n.alerts, a)
	return nil
}

func TestAlarm_FiresOnceAtThreshold(t *testing.T) {
	var depth int64
	notifier := &fakeNotifier{}
	a := New("dlq", func() int64 { return depth }, 5, time.Minute, notifier)

	// five dead-letters inside one window
	depth = 5
	a.Evaluate(context.Background(), time.Now())

	require.Equal(t, StateAlarm, a.State())
	require.Len(t, notifier.alerts, 1)
	require.Equal(t, int64(5), notifier.alerts[0].Depth)
	require.Equal(t, int64(5), notifier.alerts[0].Threshold)
}

func TestAlarm_BelowThresholdStaysQuiet(t *testing.T) {
	var depth int64
	notifier := &fakeNotifier{}
	a := New("dlq", func() int64 { return depth }, 5, time.Minute, notifier)

	depth = 4
	a.Evaluate(context.Background(), time.Now())

	require.Equal(t, StateOK, a.State())
	require.Empty(t, notifier.alerts)
}

func TestAlarm_NoRefireWhileRaised(t *testing.T) {
	var depth int64
	notifier := &fakeNotifier{}
	a := New("dlq", func() int64 { return depth }, 5, time.Minute, notifier)

	depth = 5
	a.Evaluate(context.Background(), time.Now())
	depth = 12
	a.Evaluate(context.Background(), time.Now())

	require.Equal(t, StateAlarm, a.State())
	require.Len(t, notifier.alerts, 1)
}

func TestAlarm_QuietWindowClearsThenRefires(t *testing.T) {
	var depth int64
	notifier := &fakeNotifier{}
	a := New("dlq", func() int64 { return depth }, 5, time.Minute, notifier)

	depth = 6
	a.Evaluate(context.Background(), time.Now())
	require.Equal(t, StateAlarm, a.State())

	// quiet window clears the alarm
	a.Evaluate(context.Background(), time.Now())
	require.Equal(t, StateOK, a.State())

	// a new burst raises it again
	depth = 11
	a.Evaluate(context.Background(), time.Now())
	require.Equal(t, StateAlarm, a.State())
	require.Len(t, notifier.alerts, 2)
}

func TestAlarm_WindowDeltasNotAbsolutes(t *testing.T) {
	var depth int64 = 100 // history before the alarm started
	notifier := &fakeNotifier{}
	a := New("dlq", func() int64 { return depth }, 5, time.Minute, notifier)

	depth = 103
	a.Evaluate(context.Background(), time.Now())
	require.Equal(t, StateOK, a.State())
	require.Empty(t, notifier.alerts)
}
