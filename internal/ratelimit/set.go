package ratelimit

import (
	"context"
	"time"
)

// Set groups the three request classes. Each class keeps independent state.
type Set struct {
	General *Limiter
	Search  *Limiter
	Write   *Limiter
}

// SetConfig holds per-class quotas sharing one window.
type SetConfig struct {
	General, Search, Write int
	Window                 time.Duration
	IdleTTL                time.Duration
	Now                    func() time.Time
}

// DefaultSetConfig returns 60/30/20 requests per minute.
func DefaultSetConfig() SetConfig {
	return SetConfig{General: 60, Search: 30, Write: 20, Window: DefaultWindow, IdleTTL: DefaultIdleTTL}
}

func NewSet(cfg SetConfig) *Set {
	mk := func(name string, max int) *Limiter {
		return New(Config{Name: name, Max: max, Window: cfg.Window, IdleTTL: cfg.IdleTTL, Now: cfg.Now})
	}
	return &Set{
		General: mk("general", cfg.General),
		Search:  mk("search", cfg.Search),
		Write:   mk("write", cfg.Write),
	}
}

// Run sweeps idle identifiers of every class until ctx is done.
func (s *Set) Run(ctx context.Context, interval time.Duration) {
	go s.Search.Run(ctx, interval)
	go s.Write.Run(ctx, interval)
	s.General.Run(ctx, interval)
}

// UserKey and IPKey build the identifiers every class is charged under.
// The prefixes keep user ids and addresses apart, and any code that charges
// a class on behalf of a caller must use them so the caller has one bucket.
func UserKey(uid string) string { return "user:" + uid }

func IPKey(ip string) string { return "ip:" + ip }

// Info reports per-class state for id.
func (s *Set) Info(id string) map[string]Info {
	return map[string]Info{
		"general": s.General.Info(id),
		"search":  s.Search.Info(id),
		"write":   s.Write.Info(id),
	}
}
