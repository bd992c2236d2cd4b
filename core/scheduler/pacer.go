package scheduler

import (
	"context"
	"time"
)

// Pacer is the planner's single suspension point. Wait returns once the
// plan may proceed at until, or with the context error when cancelled.
type Pacer interface {
	Wait(ctx context.Context, until time.Time) error
}

// SimulatedPacer never blocks; simulated time advances as fast as the
// planner runs.
type SimulatedPacer struct{}

func (SimulatedPacer) Wait(ctx context.Context, _ time.Time) error {
	return ctx.Err()
}

// WallClockPacer blocks until the wall clock reaches the planned time.
type WallClockPacer struct {
	Now func() time.Time
}

func (p WallClockPacer) Wait(ctx context.Context, until time.Time) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	d := until.Sub(now())
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
