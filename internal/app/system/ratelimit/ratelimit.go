// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration // buckets unused this long are dropped
	swept   time.Time
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing perMinute events per key per minute, with
// bursts of up to burst events.
func New(perMinute, burst int) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether an event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep drops idle buckets at most once per idle period. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.idle {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idle {
			delete(l.buckets, key)
		}
	}
	l.swept = now
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are not
// read here; when the server sits behind a trusted proxy, chi's RealIP
// middleware rewrites RemoteAddr before this runs.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles login attempts per client IP and per username.
type LoginLimiter struct {
	ipLimiter   *Limiter
	userLimiter *Limiter
}

// NewLoginLimiter creates a login limiter. The per-username bucket is half
// the per-IP rate so a spread of addresses cannot hammer one account.
func NewLoginLimiter(perMinute, burst int) *LoginLimiter {
	userRate := perMinute / 2
	if userRate < 1 {
		userRate = 1
	}
	return &LoginLimiter{
		ipLimiter:   New(perMinute, burst),
		userLimiter: New(userRate, burst),
	}
}

// Check reports whether a login attempt from r for username may proceed.
func (ll *LoginLimiter) Check(r *http.Request, username string) bool {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false
	}
	if key := normalizeUser(username); key != "" {
		return ll.userLimiter.Allow(key)
	}
	return true
}

// ResetUser clears the per-username bucket after a successful login.
func (ll *LoginLimiter) ResetUser(username string) {
	if key := normalizeUser(username); key != "" {
		ll.userLimiter.Reset(key)
	}
}

func normalizeUser(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
