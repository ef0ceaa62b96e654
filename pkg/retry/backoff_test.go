package retry

import (
	"testing"
	"time"
)

func TestConstantBackoff(t *testing.T) {
	b := &ConstantBackoff{Interval: 2 * time.Second}

	for attempt := 1; attempt <= 5; attempt++ {
		if got := b.NextBackoff(attempt); got != 2*time.Second {
			t.Fatalf("attempt %d: got %s, want 2s", attempt, got)
		}
	}
}

func TestExponentialBackoffGrowsAndCaps(t *testing.T) {
	b := &ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     8 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0,
	}

	if got := b.NextBackoff(1); got != time.Second {
		t.Fatalf("attempt 1: got %s, want 1s", got)
	}

	if got := b.NextBackoff(3); got != 4*time.Second {
		t.Fatalf("attempt 3: got %s, want 4s", got)
	}

	if got := b.NextBackoff(10); got != 8*time.Second {
		t.Fatalf("attempt 10: got %s, want max 8s", got)
	}
}

func TestExponentialBackoffJitterStaysInRange(t *testing.T) {
	b := &ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     time.Minute,
		Multiplier:      2.0,
		JitterFactor:    0.2,
	}

	for i := 0; i < 50; i++ {
		got := b.NextBackoff(2)
		if got < 2*time.Second || got > 2400*time.Millisecond {
			t.Fatalf("jittered backoff out of range: %s", got)
		}
	}
}
