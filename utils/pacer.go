package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces successive requests to the same host by at least a fixed
// interval. The first Wait returns immediately.
type Pacer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewPacer creates a Pacer. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Interval returns the configured spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the next request may be issued or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
