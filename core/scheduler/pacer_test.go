package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSimulatedPacer(t *testing.T) {
	if err := (SimulatedPacer{}).Wait(context.Background(), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (SimulatedPacer{}).Wait(ctx, time.Now()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestWallClockPacer(t *testing.T) {
	now := time.Date(2016, 2, 11, 1, 0, 0, 0, time.UTC)
	p := WallClockPacer{Now: func() time.Time { return now }}
	if err := p.Wait(context.Background(), now.Add(-time.Minute)); err != nil {
		t.Fatalf("past deadline should not block: %v", err)
	}
	if err := p.Wait(context.Background(), now.Add(10*time.Millisecond)); err != nil {
		t.Fatalf("short wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := p.Wait(ctx, now.Add(time.Hour)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancellation not honored promptly")
	}
}
