package ratelimit

import (
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("test") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	// Exhaust key1
	rl.Allow("key1")
	if rl.Allow("key1") {
		t.Error("key1 should be exhausted")
	}

	// key2 should still work
	if !rl.Allow("key2") {
		t.Error("key2 should be independent of key1")
	}
}

func TestKeyedRateLimiter_Refill(t *testing.T) {
	rl := New(100, 1) // refills every 10ms
	defer rl.Stop()

	if !rl.Allow("test") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("test") {
		t.Fatal("burst should be exhausted")
	}

	time.Sleep(50 * time.Millisecond)

	if !rl.Allow("test") {
		t.Error("request should pass after refill")
	}
}

func TestKeyedRateLimiter_EntryTracking(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("a")
	rl.Allow("b")

	rl.mu.RLock()
	count := len(rl.limiters)
	rl.mu.RUnlock()

	if count != 2 {
		t.Errorf("expected 2 tracked keys, got %d", count)
	}
}
