package session

import (
	"context"
	"time"
)

// ClockEventKind identifies a countdown clock event.
type ClockEventKind string

const (
	ClockTick    ClockEventKind = "tick"
	ClockLowTime ClockEventKind = "low_time"
	ClockExpired ClockEventKind = "expired"
)

// ClockEvent is a typed event emitted by the countdown clock.
type ClockEvent struct {
	Kind      ClockEventKind
	Remaining int // seconds left after this event
}

// Clock is the session countdown. It decrements once per interval, emits a
// one-shot low-time event when the remaining budget crosses the threshold,
// and a one-shot expired event at zero, after which it stops ticking.
// The interval is 1s in production; tests inject a shorter one.
type Clock struct {
	budget   int
	lowAt    int
	interval time.Duration
	events   chan ClockEvent
}

// NewClock creates a Clock with the given budget and low-time threshold,
// both in seconds.
func NewClock(budgetSeconds, lowAtSeconds int, interval time.Duration) *Clock {
	return &Clock{
		budget:   budgetSeconds,
		lowAt:    lowAtSeconds,
		interval: interval,
		events:   make(chan ClockEvent, 16),
	}
}

// Budget returns the configured total budget in seconds.
func (c *Clock) Budget() int { return c.budget }

// Events returns the event stream. Closed when the clock stops.
func (c *Clock) Events() <-chan ClockEvent { return c.events }

// Run ticks until expiry or cancellation. Call in a goroutine; cancelling ctx
// guarantees the goroutine exits and never leaks a background tick.
func (c *Clock) Run(ctx context.Context) {
	defer close(c.events)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	remaining := c.budget
	lowFired := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining--
			if remaining < 0 {
				remaining = 0
			}

			if !c.emit(ctx, ClockEvent{Kind: ClockTick, Remaining: remaining}) {
				return
			}

			// One-shot: never re-fires even if the threshold value recurs.
			if !lowFired && remaining <= c.lowAt && remaining > 0 {
				lowFired = true
				if !c.emit(ctx, ClockEvent{Kind: ClockLowTime, Remaining: remaining}) {
					return
				}
			}

			if remaining == 0 {
				c.emit(ctx, ClockEvent{Kind: ClockExpired, Remaining: 0})
				return
			}
		}
	}
}

func (c *Clock) emit(ctx context.Context, ev ClockEvent) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
