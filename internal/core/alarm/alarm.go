package alarm

import (
	"context"
	"log"
	"time"
)

type State string

const (
	StateOK    State = "OK"
	StateAlarm State = "ALARM"
)

// Alert is handed to the notifier when the alarm enters ALARM.
type Alert struct {
	Name      string        `json:"name"`
	State     State         `json:"state"`
	Depth     int64         `json:"depth"`
	Threshold int64         `json:"threshold"`
	Window    time.Duration `json:"window"`
	At        time.Time     `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// DepthFunc reports a monotonically increasing count of dead-lettered
// events; the alarm works on per-window deltas of it.
type DepthFunc func() int64

// Alarm watches dead-letter volume and fires the notifier once per
// transition into ALARM. Mirrors a threshold alarm with one evaluation
// period: depth >= threshold within a window raises it, a quiet window
// clears it.
type Alarm struct {
	name      string
	depth     DepthFunc
	threshold int64
	window    time.Duration
	notifier  Notifier

	state     State
	windowLow int64
}

func New(name string, depth DepthFunc, threshold int64, window time.Duration, n Notifier) *Alarm {
	return &Alarm{
		name:      name,
		depth:     depth,
		threshold: threshold,
		window:    window,
		notifier:  n,
		state:     StateOK,
		windowLow: depth(),
	}
}

func (a *Alarm) State() State { return a.state }

// Evaluate closes the current window and transitions state. Not safe
// for concurrent use; Run is the single caller in production.
func (a *Alarm) Evaluate(ctx context.Context, now time.Time) {
	d := a.depth()
	delta := d - a.windowLow
	a.windowLow = d

	switch {
	case delta >= a.threshold && a.state != StateAlarm:
		a.state = StateAlarm
		alert := Alert{
			Name:      a.name,
			State:     StateAlarm,
			Depth:     delta,
			Threshold: a.threshold,
			Window:    a.window,
			At:        now,
		}
		if err := a.notifier.Notify(ctx, alert); err != nil {
			log.Printf("[alarm] notify failed: %v", err)
		}
	case delta < a.threshold:
		a.state = StateOK
	}
}

func (a *Alarm) Run(ctx context.Context) {
	t := time.NewTicker(a.window)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			a.Evaluate(ctx, now)
		}
	}
}
