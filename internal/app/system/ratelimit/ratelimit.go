// internal/app/system/ratelimit/ratelimit.go

// Package ratelimit throttles sign-in attempts. A fixed window is kept per
// key; once the window's budget is spent, further attempts are refused
// until it expires.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tewell/reelhub/internal/app/system/normalize"
	"go.uber.org/zap"
)

// Limiter counts events per key over a fixed window. Safe for concurrent
// use. Stop releases its cleanup goroutine.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit events per duration for each key.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		done:     make(chan struct{}),
	}
	go l.cleanupLoop(2 * duration)
	return l
}

// Allow records an attempt for key and reports whether it fits the window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset clears the window for key. Called after a successful sign-in so a
// correct password is never charged against the account's budget.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// LoginLimiter guards the password sign-in route with two budgets: one per
// client IP (distributed guessing) and one per account email (targeted
// guessing).
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
	log     *zap.Logger
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 attempts per
// email per 5 minutes.
func NewLoginLimiter(logger *zap.Logger) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(10, time.Minute),
		byEmail: New(5, 5*time.Minute),
		log:     logger,
	}
}

// Allow reports whether this sign-in attempt is inside both budgets.
func (ll *LoginLimiter) Allow(r *http.Request, email string) bool {
	if !ll.byIP.Allow(clientIP(r)) {
		ll.log.Warn("sign-in rate limited by IP", zap.String("ip", clientIP(r)))
		return false
	}
	if email != "" && !ll.byEmail.Allow(normalize.Email(email)) {
		ll.log.Warn("sign-in rate limited by account")
		return false
	}
	return true
}

// Succeeded clears the account budget after a successful sign-in.
func (ll *LoginLimiter) Succeeded(email string) {
	if email != "" {
		ll.byEmail.Reset(normalize.Email(email))
	}
}

// Stop releases both limiters.
func (ll *LoginLimiter) Stop() {
	ll.byIP.Stop()
	ll.byEmail.Stop()
}

// clientIP trusts proxy headers before RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); first != "" {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
