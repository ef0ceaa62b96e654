package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	tb := NewTokenBucket(3, 100)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	// 100 tokens/sec refill rate, so a short sleep restores capacity.
	time.Sleep(50 * time.Millisecond)

	if !tb.Allow() {
		t.Fatal("bucket should have refilled")
	}
}

func TestTokenBucketAllowN(t *testing.T) {
	tb := NewTokenBucket(5, 0)

	if !tb.AllowN(5) {
		t.Fatal("should allow burst up to capacity")
	}

	if tb.AllowN(1) {
		t.Fatal("should reject once drained with zero refill")
	}

	tb.Reset()

	if !tb.AllowN(2) {
		t.Fatal("reset should restore capacity")
	}
}

func TestIPRateLimiterIsolatesClients(t *testing.T) {
	ipl := NewIPRateLimiter(1, 0)
	defer ipl.Stop()

	if !ipl.Allow("10.0.0.1") {
		t.Fatal("first request from first IP should pass")
	}

	if ipl.Allow("10.0.0.1") {
		t.Fatal("second request from first IP should be limited")
	}

	if !ipl.Allow("10.0.0.2") {
		t.Fatal("other IPs should have their own bucket")
	}
}
