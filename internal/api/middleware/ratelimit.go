package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Togather-Foundation/booking/internal/api/problem"
	"github.com/Togather-Foundation/booking/internal/config"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	// TierAuth guards register and login.
	TierAuth RateLimitTier = "auth"
)

const limiterTTL = 15 * time.Minute

// RateLimiter is a per-tier, per-client-IP token bucket store. Call Stop
// to end the cleanup goroutine.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute map[RateLimitTier]int
	now       func() time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		perMinute: map[RateLimitTier]int{
			TierPublic: cfg.PublicPerMinute,
			TierAuth:   cfg.AuthPerMinute,
		},
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Limit returns middleware enforcing tier. A tier configured with zero
// requests per minute is unlimited.
func (rl *RateLimiter) Limit(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := rl.limiter(tier, clientIP(r))
			if limiter != nil && !limiter.Allow() {
				retry := 60 / max(rl.perMinute[tier], 1)
				w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
				problem.Write(w, r, http.StatusTooManyRequests, "Too many requests, please try again later.", nil, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := rl.perMinute[tier]
	if limit <= 0 {
		return nil
	}
	lookup := string(tier) + ":" + key

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[lookup]; ok {
		entry.lastSeen = rl.now()
		return entry.limiter
	}
	entry := &limiterEntry{
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit)), limit),
		lastSeen: rl.now(),
	}
	rl.limiters[lookup] = entry
	return entry.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// clientIP uses RemoteAddr only; proxy headers are folded into it upstream
// by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
