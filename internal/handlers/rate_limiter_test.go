package handlers

import (
	"testing"
	"time"
)

func TestSimpleRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newSimpleRateLimiter(2, time.Minute, func() time.Time { return now })

	if !limiter.Allow("1.2.3.4") || !limiter.Allow("1.2.3.4") {
		t.Fatal("expected first two requests to pass")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("expected third request in window to be rejected")
	}
	if !limiter.Allow("5.6.7.8") {
		t.Fatal("expected other client to be unaffected")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected request after window reset to pass")
	}
}

func TestNewSimpleRateLimiterDisabled(t *testing.T) {
	if newSimpleRateLimiter(0, time.Minute, nil) != nil {
		t.Fatal("expected nil limiter for zero limit")
	}
}
