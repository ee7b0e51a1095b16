package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/local2stream/internal/shared"
)

// errInterrupted marks a call abandoned because the job stopped or the context ended mid-retry.
var errInterrupted = errors.New("interrupted")

// RetryPolicy is the single retry-with-backoff rule applied to every catalog call.
type RetryPolicy struct {
	MaxRetries int           // retries after the first attempt
	Base       time.Duration // first backoff, doubled per retry
	Max        time.Duration // backoff cap, also applied to Retry-After hints
	Limiter    *rate.Limiter // shared request budget; nil disables
	Logger     *log.Logger
}

// Backoff returns the delay before retry number attempt (1-based).
func (p RetryPolicy) Backoff(attempt int, err error) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.Base
	for i := 1; i < attempt && (p.Max <= 0 || delay < p.Max); i++ {
		delay *= 2
	}
	if hint := shared.RetryAfter(err); hint > delay {
		delay = hint
	}
	if p.Max > 0 && delay > p.Max {
		delay = p.Max
	}
	return delay
}

// Do runs fn until it succeeds, fails with a non-retryable error, or exhausts MaxRetries.
// It returns the number of attempts made and the last error.
//
// Every attempt first takes a token from Limiter. Backoff sleeps end early when ctl is stopped or
// ctx is done; the returned error then wraps errInterrupted.
func (p RetryPolicy) Do(ctx context.Context, ctl *Control, op string, fn func(context.Context) error) (int, error) {
	if ctl == nil {
		ctl = NewControl()
	}
	for attempt := 1; ; attempt++ {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return attempt - 1, fmt.Errorf("%w: %s: %w", errInterrupted, op, err)
			}
		}

		err := fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil && isContextErr(err) {
			return attempt, fmt.Errorf("%w: %s: %w", errInterrupted, op, err)
		}
		if !shared.IsRetryable(err) || attempt > p.MaxRetries {
			return attempt, err
		}

		delay := p.Backoff(attempt, err)
		if p.Logger != nil {
			p.Logger.Warn("retrying catalog call", "op", op, "attempt", attempt, "delay", delay, "err", err)
		}
		if serr := ctl.Sleep(ctx, delay); serr != nil {
			return attempt, fmt.Errorf("%w: %s: %w", errInterrupted, op, err)
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
