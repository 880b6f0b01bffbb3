package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(60, 2, nil)

	if !rl.Allow("alice") || !rl.Allow("alice") {
		t.Fatalf("expected the burst to be allowed")
	}
	if rl.Allow("alice") {
		t.Fatalf("expected the third request to be throttled")
	}
	// Keys are limited independently.
	if !rl.Allow("bob") {
		t.Fatalf("expected a fresh key to be allowed")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	// Zero values fall back to one event per minute with a burst of one.
	rl := NewRateLimiter(0, 0, nil)
	if !rl.Allow("key") {
		t.Fatalf("expected the first request to be allowed")
	}
	if rl.Allow("key") {
		t.Fatalf("expected the second request to be throttled")
	}
}

func TestRateLimiterHandler(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/accounts/login/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/accounts/login/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestRateLimiterCleanupStops(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	stop := rl.StartCleanup(time.Millisecond)
	rl.Allow("key")
	stop()
	if !rl.Allow("other") {
		t.Fatalf("limiter should keep serving after cleanup stops")
	}
}
