package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sendrec/disha/internal/httputil"
)

func newFakeLimiter(rate float64, burst int) (*Limiter, clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))
	return NewLimiter(clock, rate, burst), clock
}

func openHandler(limiter *Limiter, calls *int) http.Handler {
	return limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		w.WriteHeader(http.StatusNoContent)
	}))
}

func openRequest(remote, forwarded string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/videos/v1/open", nil)
	req.RemoteAddr = remote
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	return req
}

func TestAllowSpendsBurstThenDenies(t *testing.T) {
	limiter, _ := newFakeLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !limiter.allow("192.0.2.1") {
			t.Fatalf("open %d within the burst was denied", i+1)
		}
	}
	if limiter.allow("192.0.2.1") {
		t.Error("expected the open after the burst to be denied")
	}
}

func TestAllowRefillsWithClock(t *testing.T) {
	limiter, clock := newFakeLimiter(10, 2)
	limiter.allow("192.0.2.1")
	limiter.allow("192.0.2.1")

	if limiter.allow("192.0.2.1") {
		t.Fatal("expected denial once the bucket is empty")
	}

	clock.Advance(50 * time.Millisecond)
	if limiter.allow("192.0.2.1") {
		t.Error("half a token must not admit a request")
	}

	clock.Advance(100 * time.Millisecond)
	if !limiter.allow("192.0.2.1") {
		t.Error("expected a refilled token after 150ms at 10/s")
	}
}

func TestAllowCapsRefillAtBurst(t *testing.T) {
	limiter, clock := newFakeLimiter(100, 3)
	limiter.allow("192.0.2.1")

	clock.Advance(time.Hour)

	allowed := 0
	for i := 0; i < 6; i++ {
		if limiter.allow("192.0.2.1") {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("expected exactly 3 admitted after a long idle, got %d", allowed)
	}
}

func TestAllowKeepsClientsApart(t *testing.T) {
	limiter, _ := newFakeLimiter(1, 1)
	limiter.allow("192.0.2.1")

	if limiter.allow("192.0.2.1") {
		t.Error("expected the first client to be limited")
	}
	if !limiter.allow("192.0.2.2") {
		t.Error("expected a second client to have its own bucket")
	}
}

func TestMiddlewarePassesAllowedOpens(t *testing.T) {
	limiter, _ := newFakeLimiter(1, 2)
	calls := 0
	handler := openHandler(limiter, &calls)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, openRequest("192.0.2.1:5000", ""))

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 from the open handler, got %d", rec.Code)
	}
	if calls != 1 {
		t.Errorf("expected the open handler to run once, got %d", calls)
	}
}

func TestMiddlewareRejectsWithRetryAfter(t *testing.T) {
	limiter, _ := newFakeLimiter(1, 1)
	calls := 0
	handler := openHandler(limiter, &calls)

	handler.ServeHTTP(httptest.NewRecorder(), openRequest("192.0.2.1:5000", ""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, openRequest("192.0.2.1:5001", ""))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "10" {
		t.Errorf("expected Retry-After 10, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected JSON error, got %q", got)
	}
	if got, want := rec.Body.String(), `{"error":"too many requests"}`+"\n"; got != want {
		t.Errorf("expected body %s, got %s", want, got)
	}
	if calls != 1 {
		t.Errorf("expected the limited open to skip the handler, got %d calls", calls)
	}
}

func TestMiddlewareIgnoresForwardedForWithoutTrustedProxy(t *testing.T) {
	limiter, _ := newFakeLimiter(1, 1)
	handler := openHandler(limiter, nil)

	handler.ServeHTTP(httptest.NewRecorder(), openRequest("198.51.100.7:1234", "203.0.113.1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, openRequest("198.51.100.7:1234", "203.0.113.2"))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("a rotated X-Forwarded-For must not buy a fresh bucket, got %d", rec.Code)
	}
}

func TestMiddlewareKeysOnClientBehindTrustedProxy(t *testing.T) {
	limiter, _ := newFakeLimiter(1, 1)
	proxies, err := httputil.ParseTrustedProxies("10.0.0.0/8")
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}
	handler := proxies.Middleware(openHandler(limiter, nil))

	handler.ServeHTTP(httptest.NewRecorder(), openRequest("10.0.0.99:1234", "203.0.113.50"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, openRequest("10.0.0.100:5678", "203.0.113.50"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for the same client through another proxy, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, openRequest("10.0.0.99:1234", "203.0.113.51"))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected a different client behind the proxy to pass, got %d", rec.Code)
	}
}

func TestRunEvictsIdleVisitors(t *testing.T) {
	limiter, clock := newFakeLimiter(1, 1)
	limiter.allow("10.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		limiter.Run(ctx)
		close(done)
	}()

	clock.BlockUntil(1)
	clock.Advance(idleTimeout + time.Second)
	clock.BlockUntil(1)

	limiter.mu.Lock()
	remaining := len(limiter.visitors)
	limiter.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expected idle visitor evicted, %d remain", remaining)
	}

	cancel()
	<-done
}
