package tasks

import (
	"context"
	"sync"
	"time"
)

// Control is the cancellation and pause token shared by a job's workers.
//
// Stop is terminal and wins over pause: a paused worker wakes up and observes the stop reason.
type Control struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{} // closed when the current pause ends
	stop   chan struct{}
	reason error
}

// NewControl returns a running, unpaused token.
func NewControl() *Control {
	return &Control{stop: make(chan struct{})}
}

// Pause asks workers to block before their next track. Returns false if already paused or stopped.
func (c *Control) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || c.reason != nil {
		return false
	}
	c.paused = true
	c.resume = make(chan struct{})
	return true
}

// Resume releases paused workers. Returns false if not paused.
func (c *Control) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return false
	}
	c.paused = false
	close(c.resume)
	return true
}

// Stop records reason and wakes every waiter. Only the first call has an effect.
func (c *Control) Stop(reason error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reason != nil {
		return false
	}
	c.reason = reason
	close(c.stop)
	return true
}

// Stopped is closed once Stop has been called.
func (c *Control) Stopped() <-chan struct{} {
	return c.stop
}

// Err returns the stop reason, or nil while running.
func (c *Control) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Paused reports whether a pause is in effect.
func (c *Control) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Wait blocks while paused. It returns the stop reason or the context error if either ends the wait,
// nil when the worker may proceed.
func (c *Control) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.reason != nil {
			err := c.reason
			c.mu.Unlock()
			return err
		}
		if !c.paused {
			c.mu.Unlock()
			return ctx.Err()
		}
		resume := c.resume
		c.mu.Unlock()

		select {
		case <-resume:
		case <-c.stop:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Sleep waits for d unless the token is stopped or ctx is done first.
func (c *Control) Sleep(ctx context.Context, d time.Duration) error {
	if err := c.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-c.stop:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
