// Package ratelimit implements sliding-window log rate limiting.
//
// A Limiter keeps, per identifier, the timestamps of admitted requests inside
// a trailing window. A request is admitted only while fewer than Max
// timestamps remain in the window; denied requests are not recorded, so a
// client that keeps retrying does not extend its own lockout.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tbourn/recipe-roulette/internal/apperr"
)

const (
	DefaultWindow  = time.Minute
	DefaultIdleTTL = 5 * time.Minute
)

var deniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ratelimit_denied_total",
	Help: "Requests rejected by a sliding-window limiter.",
}, []string{"limiter"})

// Config describes one limiter.
type Config struct {
	Name    string        // metrics label
	Max     int           // admitted requests per window
	Window  time.Duration // defaults to DefaultWindow
	IdleTTL time.Duration // defaults to DefaultIdleTTL
	Now     func() time.Time
}

// Limiter is safe for concurrent use.
type Limiter struct {
	name    string
	max     int
	window  time.Duration
	idleTTL time.Duration
	now     func() time.Time
	denied  prometheus.Counter

	mu   sync.Mutex
	logs map[string][]time.Time
}

// New builds a Limiter. Max below 1 is treated as 1.
func New(cfg Config) *Limiter {
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	return &Limiter{
		name:    cfg.Name,
		max:     cfg.Max,
		window:  cfg.Window,
		idleTTL: cfg.IdleTTL,
		now:     cfg.Now,
		denied:  deniedTotal.WithLabelValues(cfg.Name),
		logs:    make(map[string][]time.Time),
	}
}

func (l *Limiter) Name() string { return l.name }
func (l *Limiter) Max() int     { return l.max }

// prune drops timestamps that left the window. Caller holds l.mu.
func (l *Limiter) prune(id string, now time.Time) []time.Time {
	ts := l.logs[id]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		ts = append(ts[:0], ts[i:]...)
		l.logs[id] = ts
	}
	return ts
}

// Allow admits a request for id and records it, or denies it without
// recording anything.
func (l *Limiter) Allow(id string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.prune(id, now)
	if len(ts) >= l.max {
		l.denied.Inc()
		return false
	}
	l.logs[id] = append(ts, now)
	return true
}

// Remaining reports how many more requests id may make right now.
func (l *Limiter) Remaining(id string) int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.max - len(l.prune(id, now))
	if n < 0 {
		return 0
	}
	return n
}

// TimeUntilReset reports how long until the oldest in-window request of id
// leaves the window. It is zero while id is under its limit.
func (l *Limiter) TimeUntilReset(id string) time.Duration {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := l.prune(id, now)
	if len(ts) < l.max {
		return 0
	}
	d := ts[0].Add(l.window).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Reset forgets all history for id.
func (l *Limiter) Reset(id string) {
	l.mu.Lock()
	delete(l.logs, id)
	l.mu.Unlock()
}

// Clear forgets every identifier.
func (l *Limiter) Clear() {
	l.mu.Lock()
	l.logs = make(map[string][]time.Time)
	l.mu.Unlock()
}

// Cleanup drops identifiers whose newest request is older than the idle TTL
// and returns how many were dropped.
func (l *Limiter) Cleanup() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, ts := range l.logs {
		if len(ts) == 0 || now.Sub(ts[len(ts)-1]) > l.idleTTL {
			delete(l.logs, id)
			n++
		}
	}
	return n
}

// Len counts tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.logs)
}

// Run calls Cleanup every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Cleanup()
		}
	}
}

// Check admits a request for id or returns an apperr rate limit error
// carrying the wait.
func (l *Limiter) Check(id string) error {
	if l.Allow(id) {
		return nil
	}
	return apperr.RateLimited(l.TimeUntilReset(id))
}

// Info summarizes the limiter state for id.
type Info struct {
	Remaining      int `json:"remaining" example:"59"`
	Limit          int `json:"limit" example:"60"`
	ResetInSeconds int `json:"reset_in_seconds" example:"0"`
}

func (l *Limiter) Info(id string) Info {
	return Info{
		Remaining:      l.Remaining(id),
		Limit:          l.max,
		ResetInSeconds: int(math.Ceil(l.TimeUntilReset(id).Seconds())),
	}
}
