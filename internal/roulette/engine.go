package roulette

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/recipe-roulette/internal/apperr"
	"github.com/tbourn/recipe-roulette/internal/cache"
	"github.com/tbourn/recipe-roulette/internal/domain"
)

// User-facing messages.
const (
	MsgSessionNotFound = "session not found"
	MsgComplete        = "Roulette is already complete"
	MsgSpinning        = "Spin already in progress"
	MsgEmptyPool       = "No dishes registered for this stage"
	MsgPoolUnavailable = "Could not load roulette options"
	MsgResetDuringSpin = "Roulette was reset during the spin"
	MsgInvalidRegion   = "invalid region"
)

var spinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "roulette_spins_total",
	Help: "Roulette spins by stage and outcome.",
}, []string{"stage", "outcome"})

// PoolSource loads the candidate values for each stage.
type PoolSource interface {
	// Countries lists countries with at least one dish; region may be empty.
	Countries(ctx context.Context, region string) ([]string, error)
	// DishNames lists dish names of a category from a country.
	DishNames(ctx context.Context, country string, category domain.Category) ([]string, error)
}

// Options tune an Engine. Zero values select the defaults.
type Options struct {
	SessionTTL   time.Duration // default 30m
	SpinCooldown time.Duration // reel animation time; re-spins are rejected until it passes
	Frames       int           // teaser values returned per spin
	Rand         Rand
	Now          func() time.Time
}

// Engine runs roulette sessions. It is safe for concurrent use.
type Engine struct {
	pools    PoolSource
	sessions *cache.Cache[*session]
	ttl      time.Duration
	cooldown time.Duration
	frames   int
	now      func() time.Time

	rngMu sync.Mutex
	rng   Rand
}

// session is the mutable state behind a Snapshot.
type session struct {
	mu sync.Mutex

	id        string
	region    string
	stage     Stage
	selection Selection
	history   map[Stage]History
	spins     int

	spinning    bool
	settleUntil time.Time
	gen         int // bumped by Reset; a spin started under an older gen is discarded
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID        string             `json:"id"`
	Region    string             `json:"region,omitempty"`
	Stage     Stage              `json:"stage"`
	Selection Selection          `json:"selection"`
	History   map[Stage][]string `json:"history"`
	Spins     int                `json:"spins"`
}

// SpinResult describes one completed draw.
type SpinResult struct {
	Stage   Stage    `json:"stage"`
	Value   string   `json:"value"`
	Frames  []string `json:"frames,omitempty"`
	Session Snapshot `json:"session"`
}

// NewEngine wires an Engine to its pool source.
func NewEngine(pools PoolSource, opts Options) *Engine {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.Frames < 0 {
		opts.Frames = 0
	}
	if opts.Rand == nil {
		opts.Rand = globalRand{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		pools:    pools,
		sessions: cache.New[*session]("roulette_sessions", cache.WithDefaultTTL(opts.SessionTTL), cache.WithClock(opts.Now)),
		ttl:      opts.SessionTTL,
		cooldown: opts.SpinCooldown,
		frames:   opts.Frames,
		now:      opts.Now,
		rng:      opts.Rand,
	}
}

// Run sweeps abandoned sessions every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	e.sessions.Run(ctx, interval)
}

// NewSession starts a roulette at the country stage. A non-empty region
// restricts the country pool.
func (e *Engine) NewSession(region string) (Snapshot, error) {
	if region != "" && !domain.Region(region).Valid() {
		return Snapshot{}, apperr.Validation(MsgInvalidRegion)
	}
	s := &session{
		id:      uuid.NewString(),
		region:  region,
		stage:   StageCountry,
		history: make(map[Stage]History, len(Stages)),
	}
	e.sessions.Set(s.id, s, e.ttl)
	return s.snapshot(), nil
}

// Get returns the current state of session id.
func (e *Engine) Get(id string) (Snapshot, error) {
	s, ok := e.sessions.Get(id)
	if !ok {
		return Snapshot{}, apperr.NotFound(MsgSessionNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Reset returns session id to the country stage and clears its selection.
// Draw history is kept so the next run still avoids recent values.
func (e *Engine) Reset(id string) (Snapshot, error) {
	s, ok := e.sessions.Get(id)
	if !ok {
		return Snapshot{}, apperr.NotFound(MsgSessionNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = StageCountry
	s.selection = Selection{}
	s.settleUntil = time.Time{}
	s.gen++
	e.sessions.Set(id, s, e.ttl)
	return s.snapshot(), nil
}

// Countries lists the country pool for region.
func (e *Engine) Countries(ctx context.Context, region string) ([]string, error) {
	if region != "" && !domain.Region(region).Valid() {
		return nil, apperr.Validation(MsgInvalidRegion)
	}
	list, err := e.pools.Countries(ctx, region)
	if err != nil {
		return nil, apperr.Unavailable(MsgPoolUnavailable, err)
	}
	return normalizePool(list), nil
}

// Spin draws the current stage of session id and advances it.
//
// The pool is loaded without holding the session lock. While that happens the
// session is marked spinning and concurrent spins are rejected. A failed load
// or an empty pool leaves the session exactly as it was.
func (e *Engine) Spin(ctx context.Context, id string) (*SpinResult, error) {
	s, ok := e.sessions.Get(id)
	if !ok {
		return nil, apperr.NotFound(MsgSessionNotFound)
	}

	s.mu.Lock()
	if s.stage == StageComplete {
		s.mu.Unlock()
		return nil, apperr.Validation(MsgComplete)
	}
	now := e.now()
	if s.spinning {
		s.mu.Unlock()
		return nil, apperr.Conflict(MsgSpinning, e.cooldown)
	}
	if now.Before(s.settleUntil) {
		wait := s.settleUntil.Sub(now)
		s.mu.Unlock()
		return nil, apperr.Conflict(MsgSpinning, wait)
	}
	s.spinning = true
	stage, sel, region, gen := s.stage, s.selection, s.region, s.gen
	s.mu.Unlock()

	ctx, span := otel.Tracer("roulette").Start(ctx, "Spin",
		trace.WithAttributes(attribute.String("roulette.stage", string(stage))))
	defer span.End()

	pool, err := e.loadPool(ctx, stage, sel, region)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinning = false

	if err != nil {
		span.RecordError(err)
		spinsTotal.WithLabelValues(string(stage), "error").Inc()
		return nil, apperr.Unavailable(MsgPoolUnavailable, err)
	}
	if s.gen != gen {
		spinsTotal.WithLabelValues(string(stage), "discarded").Inc()
		return nil, apperr.Conflict(MsgResetDuringSpin, 0)
	}

	e.rngMu.Lock()
	value, next, ok := Draw(pool, s.history[stage], e.rng)
	var frames []string
	if ok {
		frames = e.reel(pool, value)
	}
	e.rngMu.Unlock()
	if !ok {
		spinsTotal.WithLabelValues(string(stage), "empty").Inc()
		return nil, apperr.EmptyResult(MsgEmptyPool)
	}

	s.history[stage] = next
	s.selection.set(stage, value)
	s.stage = stage.Next()
	s.spins++
	s.settleUntil = e.now().Add(e.cooldown)
	e.sessions.Set(id, s, e.ttl)
	spinsTotal.WithLabelValues(string(stage), "ok").Inc()
	span.SetAttributes(attribute.Int("roulette.pool_size", len(pool)))

	return &SpinResult{Stage: stage, Value: value, Frames: frames, Session: s.snapshot()}, nil
}

func (e *Engine) loadPool(ctx context.Context, stage Stage, sel Selection, region string) ([]string, error) {
	var (
		list []string
		err  error
	)
	switch stage {
	case StageCountry:
		list, err = e.pools.Countries(ctx, region)
	case StageStapleFood:
		list, err = e.pools.DishNames(ctx, sel.Country, domain.CategoryStapleFood)
	case StageMainDish:
		list, err = e.pools.DishNames(ctx, sel.Country, domain.CategoryMainDish)
	}
	if err != nil {
		return nil, err
	}
	return normalizePool(list), nil
}

// reel returns e.frames teaser values ending with the drawn value. Caller
// holds rngMu.
func (e *Engine) reel(pool []string, value string) []string {
	if e.frames == 0 {
		return nil
	}
	out := make([]string, e.frames)
	for i := 0; i < e.frames-1; i++ {
		out[i] = pool[e.rng.IntN(len(pool))]
	}
	out[e.frames-1] = value
	return out
}

// snapshot copies s. Caller holds s.mu.
func (s *session) snapshot() Snapshot {
	h := make(map[Stage][]string, len(s.history))
	for st, used := range s.history {
		h[st] = used.Sorted()
	}
	return Snapshot{
		ID:        s.id,
		Region:    s.region,
		Stage:     s.stage,
		Selection: s.selection,
		History:   h,
		Spins:     s.spins,
	}
}
