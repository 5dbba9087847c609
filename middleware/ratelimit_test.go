package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiterEnforcesLimit(t *testing.T) {
	rl := NewIPRateLimiter(3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !rl.allowAt("1.2.3.4", now) {
			t.Fatalf("request %d within the limit was rejected", i+1)
		}
	}
	if rl.allowAt("1.2.3.4", now) {
		t.Error("request over the limit was allowed")
	}
	if !rl.allowAt("5.6.7.8", now) {
		t.Error("limit leaked across IPs")
	}
}

func TestIPRateLimiterWindowSlides(t *testing.T) {
	rl := NewIPRateLimiter(2, time.Minute)
	start := time.Now()

	if !rl.allowAt("1.2.3.4", start) {
		t.Fatal("first request rejected")
	}
	if !rl.allowAt("1.2.3.4", start.Add(time.Second)) {
		t.Fatal("second request rejected")
	}
	if rl.allowAt("1.2.3.4", start.Add(2*time.Second)) {
		t.Error("third request inside the window was allowed")
	}
	if !rl.allowAt("1.2.3.4", start.Add(61*time.Second)) {
		t.Error("request after the window expired was rejected")
	}
}
