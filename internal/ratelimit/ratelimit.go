// Package ratelimit is a per-client token bucket for HTTP handlers.
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sendrec/disha/internal/httputil"
)

const (
	cleanupInterval = 5 * time.Minute
	idleTimeout     = 10 * time.Minute
)

type visitor struct {
	tokens   float64
	lastSeen time.Time
}

type Limiter struct {
	clock clockwork.Clock
	rate  float64
	burst float64

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewLimiter allows each client burst requests at once, refilled at
// requestsPerSecond.
func NewLimiter(clock clockwork.Clock, requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		clock:    clock,
		visitors: make(map[string]*visitor),
		rate:     requestsPerSecond,
		burst:    float64(burst),
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	v, exists := l.visitors[key]
	if !exists {
		l.visitors[key] = &visitor{tokens: l.burst - 1, lastSeen: now}
		return true
	}

	elapsed := now.Sub(v.lastSeen).Seconds()
	v.lastSeen = now
	v.tokens += elapsed * l.rate
	if v.tokens > l.burst {
		v.tokens = l.burst
	}

	if v.tokens < 1 {
		return false
	}

	v.tokens--
	return true
}

// Run evicts idle clients until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.clock.After(cleanupInterval):
			l.evictIdle()
		}
	}
}

func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleTimeout {
			delete(l.visitors, key)
		}
	}
}

// Middleware keys clients by httputil.ClientIP, so forwarded addresses only
// count behind httputil.TrustedProxies.Middleware.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(httputil.ClientIP(r)) {
			w.Header().Set("Retry-After", "10")
			httputil.WriteError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
