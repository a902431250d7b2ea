package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval keeps sends under the provider's daily cap (about 69k/day)
// with some margin.
const DefaultInterval = 1250 * time.Millisecond

// Limiter spaces sends so that at most `permits` are issued per `interval`.
// With one permit (the default) sends are fully serialized: consecutive
// Acquire calls return at least `interval` apart, whatever goroutine calls.
// A single Limiter is built at startup and shared by every sender.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	permits  int
}

func New(interval time.Duration, permits int) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if permits <= 0 {
		permits = 1
	}

	every := interval / time.Duration(permits)

	return &Limiter{
		limiter:  rate.NewLimiter(rate.Every(every), permits),
		interval: interval,
		permits:  permits,
	}
}

// Acquire blocks until a send is allowed or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

func (l *Limiter) Interval() time.Duration {
	return l.interval
}

func (l *Limiter) Permits() int {
	return l.permits
}
