package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, 50*time.Millisecond)

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request within the window should be denied")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("a different IP has its own bucket")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.allow("1.2.3.4") {
		t.Error("tokens should reset after the window")
	}
}

func TestRateLimiterSweepsStaleVisitors(t *testing.T) {
	rl := newRateLimiter(1, 10*time.Millisecond)
	rl.allow("1.2.3.4")

	// Idle past two windows; the next allow call sweeps the entry.
	time.Sleep(25 * time.Millisecond)
	rl.allow("5.6.7.8")

	rl.mu.Lock()
	_, stale := rl.visitors["1.2.3.4"]
	rl.mu.Unlock()
	if stale {
		t.Error("stale visitor entry should have been swept")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	handler := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/diff", nil)
	req.RemoteAddr = "1.2.3.4"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "RATE001" {
		t.Errorf("Code = %s, want RATE001", resp.Code)
	}
}
