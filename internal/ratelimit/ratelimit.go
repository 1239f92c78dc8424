// Package ratelimit wraps golang.org/x/time/rate for the scan loop.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces an activity to a per-minute budget.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing eventsPerMinute, with a burst of 10% of the
// budget (at least one).
func New(eventsPerMinute int) *Limiter {
	burst := eventsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(eventsPerMinute)/60.0), burst),
	}
}

// Wait blocks until an event may proceed or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may proceed now without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetLimit changes the per-minute budget at runtime.
func (l *Limiter) SetLimit(eventsPerMinute int) {
	l.limiter.SetLimit(rate.Limit(float64(eventsPerMinute) / 60.0))
}
