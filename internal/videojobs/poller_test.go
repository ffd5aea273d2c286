package videojobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAttemptProgress(t *testing.T) {
	cases := []struct {
		attempt, max, hint, want int
	}{
		{1, 60, 0, 1},
		{30, 60, 0, 50},
		{60, 60, 0, progressCap},
		{1, 60, 42, 42},   // provider hint ahead of attempt-derived value
		{40, 60, 10, 66},  // stale hint never lowers progress
		{1, 60, 99, progressCap}, // hint capped below 100
		{5, 5, 0, progressCap},
	}
	for _, tc := range cases {
		if got := attemptProgress(tc.attempt, tc.max, tc.hint); got != tc.want {
			t.Errorf("attemptProgress(%d, %d, %d) = %d, want %d", tc.attempt, tc.max, tc.hint, got, tc.want)
		}
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	p := RetryPolicy{Interval: time.Hour, MaxAttempts: 1}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.wait(ctx) }()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not observe cancellation")
	}
}

func TestNormalizedDefaults(t *testing.T) {
	p := RetryPolicy{}.normalized()
	if p.Interval != 30*time.Second || p.MaxAttempts != 60 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p := (RetryPolicy{Interval: time.Second, MaxAttempts: 5, Jitter: -1}).normalized(); p.Jitter != 0 {
		t.Fatalf("negative jitter must normalize to 0, got %f", p.Jitter)
	}
}
