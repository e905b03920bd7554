package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimerState is the state of a Countdown
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerFinished
	TimerCancelled
)

func (s TimerState) String() string {
	switch s {
	case TimerIdle:
		return "idle"
	case TimerRunning:
		return "running"
	case TimerFinished:
		return "finished"
	case TimerCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var (
	ErrTimerStarted = errors.New("countdown already started")
)

// Countdown counts a number of seconds down once, ticking every second.
// Remaining time is measured against the clock, so late or dropped ticks do
// not stretch the countdown.
type Countdown struct {
	clock clockwork.Clock

	mu        sync.Mutex
	state     TimerState
	remaining int
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCountdown returns an idle countdown driven by clock
func NewCountdown(clock clockwork.Clock) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{clock: clock, done: make(chan struct{})}
}

// Start begins counting seconds down in the background. onTick, if set, is
// called from the timer goroutine with the remaining seconds after every tick.
// Cancelling ctx cancels the countdown.
func (c *Countdown) Start(ctx context.Context, seconds int, onTick func(remaining int)) error {
	if seconds <= 0 {
		return ErrInvalidDuration
	}

	c.mu.Lock()
	if c.state != TimerIdle {
		c.mu.Unlock()
		return ErrTimerStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	c.state = TimerRunning
	c.remaining = seconds
	c.cancel = cancel
	c.mu.Unlock()

	total := time.Duration(seconds) * time.Second
	startedAt := c.clock.Now()
	ticker := c.clock.NewTicker(time.Second)

	go func() {
		defer close(c.done)
		defer ticker.Stop()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				c.finish(TimerCancelled, -1)
				return
			case <-ticker.Chan():
				elapsed := c.clock.Since(startedAt)
				remaining := int((total - elapsed + time.Second - 1) / time.Second)
				if remaining <= 0 {
					// A cancel that raced the last tick wins
					if ctx.Err() != nil {
						c.finish(TimerCancelled, -1)
						return
					}
					c.finish(TimerFinished, 0)
					if onTick != nil {
						onTick(0)
					}
					return
				}

				c.mu.Lock()
				c.remaining = remaining
				c.mu.Unlock()
				if onTick != nil {
					onTick(remaining)
				}
			}
		}
	}()

	return nil
}

func (c *Countdown) finish(state TimerState, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	if remaining >= 0 {
		c.remaining = remaining
	}
}

// Cancel stops a running countdown. It has no effect once the countdown has ended.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case TimerIdle:
		c.state = TimerCancelled
		close(c.done)
	case TimerRunning:
		c.cancel()
	}
}

// Wait blocks until the countdown finishes or is cancelled and returns the final state
func (c *Countdown) Wait() TimerState {
	<-c.done
	return c.State()
}

// Done is closed when the countdown has ended
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// State returns the current state
func (c *Countdown) State() TimerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining returns the seconds left as of the last tick
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}
