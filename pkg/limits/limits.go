// Package limits bounds how fast a live connection may send messages and
// how many connections one client address may hold.
package limits

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Common errors.
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrTooManyConnections = errors.New("too many connections from this address")
)

// TokenBucket rate limits operations per key. Buckets are created on first
// use and dropped with Forget.
type TokenBucket struct {
	rate    float64
	burst   int
	buckets map[string]*bucket
	now     func() time.Time
	mu      sync.Mutex
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// NewTokenBucket allows rate operations per second with bursts of up to
// burst. A rate of zero or less disables limiting.
func NewTokenBucket(rate float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		rate:    rate,
		burst:   burst,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow reports whether one operation for key may proceed now.
func (tb *TokenBucket) Allow(key string) bool {
	if tb.rate <= 0 {
		return true
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(tb.burst), lastFill: now}
		tb.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastFill).Seconds() * tb.rate
	if b.tokens > float64(tb.burst) {
		b.tokens = float64(tb.burst)
	}
	b.lastFill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Forget drops the bucket for key.
func (tb *TokenBucket) Forget(key string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	delete(tb.buckets, key)
}

// Len returns the number of tracked keys.
func (tb *TokenBucket) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}

// ConnectionLimiter limits concurrent connections per client address.
type ConnectionLimiter struct {
	maxPerIP int
	counts   map[string]int
	mu       sync.Mutex
}

// NewConnectionLimiter allows maxPerIP concurrent connections per address.
// Zero or less means unlimited.
func NewConnectionLimiter(maxPerIP int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxPerIP: maxPerIP,
		counts:   make(map[string]int),
	}
}

// Acquire takes a slot for ip. It returns false when the address is at its
// limit.
func (cl *ConnectionLimiter) Acquire(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.maxPerIP > 0 && cl.counts[ip] >= cl.maxPerIP {
		return false
	}
	cl.counts[ip]++
	return true
}

// Release returns a slot taken by Acquire.
func (cl *ConnectionLimiter) Release(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.counts[ip] <= 1 {
		delete(cl.counts, ip)
		return
	}
	cl.counts[ip]--
}

// Count returns the current connection count for ip.
func (cl *ConnectionLimiter) Count(ip string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.counts[ip]
}

// ClientIP returns the client address of r. Forwarding headers are only
// honored when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
