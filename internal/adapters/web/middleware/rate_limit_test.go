package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(3, 1*time.Second)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	if limiter.Allow("10.0.0.1") {
		t.Error("4th request should be blocked")
	}

	if !limiter.Allow("10.0.0.2") {
		t.Error("request from different client should be allowed")
	}
}

func TestRateLimiterWindowExpiration(t *testing.T) {
	limiter := NewRateLimiter(2, 500*time.Millisecond)

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.1")

	if limiter.Allow("10.0.0.1") {
		t.Error("request should be blocked before window expires")
	}

	time.Sleep(600 * time.Millisecond)

	if !limiter.Allow("10.0.0.1") {
		t.Error("request should be allowed after window expires")
	}
}

func TestRateLimiterCleanupEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(5, 100*time.Millisecond)

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")
	limiter.Allow("10.0.0.3")

	limiter.mu.Lock()
	before := len(limiter.clients)
	limiter.mu.Unlock()
	if before != 3 {
		t.Errorf("expected 3 tracked clients, got %d", before)
	}

	time.Sleep(150 * time.Millisecond)
	limiter.cleanup()

	limiter.mu.Lock()
	after := len(limiter.clients)
	limiter.mu.Unlock()
	if after != 0 {
		t.Errorf("expected 0 tracked clients after cleanup, got %d", after)
	}
}

func TestRateLimiterBlockedRequestDoesNotConsumeSlot(t *testing.T) {
	limiter := NewRateLimiter(1, 1*time.Second)

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	// Hammering while blocked must not extend the block indefinitely.
	for i := 0; i < 5; i++ {
		if limiter.Allow("10.0.0.1") {
			t.Error("request should be blocked inside the window")
		}
	}

	limiter.mu.Lock()
	recorded := len(limiter.clients["10.0.0.1"].hits)
	limiter.mu.Unlock()
	if recorded != 1 {
		t.Errorf("blocked requests should not be recorded, got %d entries", recorded)
	}
}
