package session

import (
	"context"
	"testing"
	"time"
)

// drain collects all clock events until the channel closes or the deadline hits.
func drain(t *testing.T, c *Clock, deadline time.Duration) []ClockEvent {
	t.Helper()

	var events []ClockEvent
	timeout := time.After(deadline)
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("clock did not finish within %v; got %d events", deadline, len(events))
		}
	}
}

func TestClockRunsDownAndExpires(t *testing.T) {
	c := NewClock(5, 2, time.Millisecond)

	ctx := context.Background()
	go c.Run(ctx)

	events := drain(t, c, 2*time.Second)

	last := events[len(events)-1]
	if last.Kind != ClockExpired || last.Remaining != 0 {
		t.Errorf("last event = %+v, want expired at 0", last)
	}

	ticks := 0
	for _, ev := range events {
		if ev.Kind == ClockTick {
			ticks++
		}
	}
	if ticks != 5 {
		t.Errorf("ticks = %d, want 5", ticks)
	}
}

func TestClockLowTimeFiresOnce(t *testing.T) {
	c := NewClock(6, 3, time.Millisecond)

	go c.Run(context.Background())
	events := drain(t, c, 2*time.Second)

	lowCount := 0
	var lowRemaining int
	for _, ev := range events {
		if ev.Kind == ClockLowTime {
			lowCount++
			lowRemaining = ev.Remaining
		}
	}
	if lowCount != 1 {
		t.Fatalf("low_time fired %d times, want exactly once", lowCount)
	}
	if lowRemaining != 3 {
		t.Errorf("low_time at remaining=%d, want 3", lowRemaining)
	}
}

func TestClockNoLowTimeWhenThresholdIsZero(t *testing.T) {
	c := NewClock(3, 0, time.Millisecond)

	go c.Run(context.Background())
	events := drain(t, c, 2*time.Second)

	for _, ev := range events {
		if ev.Kind == ClockLowTime {
			t.Fatal("low_time fired with a zero threshold")
		}
	}
}

func TestClockStopsOnCancel(t *testing.T) {
	c := NewClock(1000, 10, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	// Let it tick a few times, then cancel.
	time.Sleep(10 * time.Millisecond)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				return // channel closed, goroutine exited
			}
		case <-deadline:
			t.Fatal("clock did not stop after cancel")
		}
	}
}
