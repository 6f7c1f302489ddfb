// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the two request throttles:
//
//   - EdgeLimiter, a coarse per-identity token bucket (golang.org/x/time/rate)
//     installed globally to absorb bursts before any handler runs.
//   - Throttle, the per-class sliding-window quota (general, search, write)
//     installed on route groups. It answers 429 with the localized
//     "please wait N second(s)" message and a Retry-After header.
//
// Both key callers by authenticated user id and fall back to the client IP.
// Idempotent replays detected by IdempotencyValidator skip both.
package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/recipe-roulette/internal/apperr"
	"github.com/tbourn/recipe-roulette/internal/ratelimit"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP prefers the authenticated user id and falls back to the
// client IP. Keys are prefixed so the two namespaces never collide.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := UserID(c); uid != "" {
			return ratelimit.UserKey(uid)
		}
		return ratelimit.IPKey(c.ClientIP())
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// EdgeLimiter is a per-key token bucket. Idle buckets are evicted
// opportunistically during lookups. Safe for concurrent use.
type EdgeLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewEdgeLimiter builds an EdgeLimiter refilling rps tokens per second with
// the given burst (coerced to at least 1).
func NewEdgeLimiter(rps float64, burst int, keyFn keyFunc) *EdgeLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	return &EdgeLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the bucket for key, creating it if absent. Idle buckets
// are swept every 5000 lookups, before the requested one is touched so a
// stale entry can still be evicted.
func (rl *EdgeLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay of a completed operation.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the edge bucket. A rejected request gets 429 with the
// time until the next token as Retry-After.
func (rl *EdgeLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		lim := rl.getVisitor(rl.keyFn(c))
		r := lim.Reserve()
		delay := r.Delay()
		if r.OK() && delay == 0 {
			c.Next()
			return
		}
		r.Cancel()
		if !r.OK() || delay <= 0 {
			delay = time.Second
		}
		AbortWithError(c, apperr.RateLimited(delay))
	}
}

// Throttle applies a sliding-window class limiter. The key is computed per
// request so that auth middleware installed earlier on the route decides
// whether the caller is counted by user or by IP.
//
// Every response carries X-RateLimit-Limit and X-RateLimit-Remaining for
// the class.
func Throttle(l *ratelimit.Limiter, keyFn keyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		key := keyFn(c)
		err := l.Check(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.Max()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(l.Remaining(key)))
		if err != nil {
			LoggerFrom(c).Info().Str("class", l.Name()).Str("key", key).Msg("rate limited")
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
