package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/recipe-roulette/internal/repo"
)

// Idempotency scopes for create operations.
const (
	ScopeCreateDish = "dishes.create"
)

// Idempotency answers whether a create request was already processed and
// remembers the resource a fresh one produced.
type Idempotency struct {
	DB  *gorm.DB
	TTL time.Duration
}

func NewIdempotency(db *gorm.DB, ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Idempotency{DB: db, TTL: ttl}
}

// Exists reports whether a live record for (userID, scope, key) exists at
// now. It matches the lookup signature of the idempotency middleware.
func (i *Idempotency) Exists(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	if userID == "" || key == "" {
		return false, nil
	}
	_, err := repo.GetIdempotency(ctx, i.DB, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Resource returns the id produced by the original request, if any.
func (i *Idempotency) Resource(ctx context.Context, userID, scope, key string) (string, bool) {
	if userID == "" || key == "" {
		return "", false
	}
	rec, err := repo.GetIdempotency(ctx, i.DB, userID, scope, key, time.Now().UTC())
	if err != nil {
		return "", false
	}
	return rec.ResourceID, true
}

// Remember stores resourceID for the key. A concurrent duplicate is ignored;
// other failures are logged and never fail the request that already
// succeeded.
func (i *Idempotency) Remember(ctx context.Context, userID, scope, key, resourceID string, status int) {
	if userID == "" || key == "" {
		return
	}
	if _, err := repo.CreateIdempotency(ctx, i.DB, userID, scope, key, resourceID, status, i.TTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		log.Warn().Err(err).Str("user_id", userID).Str("scope", scope).Msg("store idempotency key")
	}
}

// Purge removes expired records and returns how many were deleted.
func (i *Idempotency) Purge(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, i.DB, time.Now().UTC())
}

// Run purges expired records every interval until ctx is done.
func (i *Idempotency) Run(ctx context.Context, interval time.Duration) {
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
			if n, err := i.Purge(ctx); err != nil {
				log.Warn().Err(err).Msg("purge idempotency keys")
			} else if n > 0 {
				log.Debug().Int64("purged", n).Msg("idempotency keys expired")
			}
		}
	}
}
