// Package services – RecipeService
//
// RecipeService turns a completed roulette selection into a saved recipe. It
// resolves the selection (from the request or from a roulette session),
// delegates authentication, rate gating and the AI call to the recipe proxy,
// then stores the result so the user can find it again under /me/recipes.
//
// Retries carrying the same Idempotency-Key replay the stored recipe instead
// of calling the AI service again.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/recipe"
	"github.com/tbourn/recipe-roulette/internal/repo"
	"github.com/tbourn/recipe-roulette/internal/roulette"
)

// ScopeGenerateRecipe namespaces idempotency keys of recipe generation.
const ScopeGenerateRecipe = "recipes.generate"

// Generator produces recipe text. *recipe.Proxy satisfies it.
type Generator interface {
	Generate(ctx context.Context, token string, sel roulette.Selection) (*recipe.Result, error)
}

// SessionSource exposes roulette sessions. *roulette.Engine satisfies it.
type SessionSource interface {
	Get(id string) (roulette.Snapshot, error)
}

// GenerateInput selects what to cook. When SessionID is set the selection is
// taken from that roulette session and the other fields are ignored.
type GenerateInput struct {
	Country   string `json:"country"    example:"Japan"`
	MainFood  string `json:"mainFood"   example:"ご飯"`
	MainDish  string `json:"mainDish"   example:"唐揚げ"`
	SessionID string `json:"session_id" example:"1f6f2a0e-7f7c-4b7e-9d3f-3f0e6c1d2b4a"`
}

// GeneratedRecipe is a stored recipe in the proxy's response shape.
type GeneratedRecipe struct {
	ID string `json:"id" example:"0b8f1a52-2a1d-4c5e-8f7a-9c3d2e1f0a6b"`
	recipe.Result
	CreatedAt time.Time `json:"created_at"`
}

type RecipeService struct {
	DB        *gorm.DB
	Generator Generator
	Sessions  SessionSource
	Idem      *Idempotency
}

func NewRecipeService(db *gorm.DB, g Generator, sessions SessionSource) *RecipeService {
	return &RecipeService{DB: db, Generator: g, Sessions: sessions, Idem: NewIdempotency(db, 0)}
}

// Generate produces and stores a recipe for the holder of token. userID is
// the caller as already identified by middleware (may be empty) and is only
// used to look up an earlier result for idemKey. The second result reports a
// replay.
func (s *RecipeService) Generate(ctx context.Context, token, userID, idemKey string, in GenerateInput) (*GeneratedRecipe, bool, error) {
	ctx, span := otel.Tracer("services/RecipeService").Start(ctx, "Generate",
		trace.WithAttributes(attribute.Bool("recipe.from_session", in.SessionID != "")))
	defer span.End()

	if idemKey != "" && userID != "" {
		if prev, ok := s.replay(ctx, userID, idemKey); ok {
			span.SetAttributes(attribute.Bool("idempotent.replay", true))
			return prev, true, nil
		}
	}

	sel := roulette.Selection{Country: in.Country, StapleFood: in.MainFood, MainDish: in.MainDish}
	if id := strings.TrimSpace(in.SessionID); id != "" && s.Sessions != nil {
		snap, err := s.Sessions.Get(id)
		if err != nil {
			return nil, false, err
		}
		sel = snap.Selection
	}

	res, err := s.Generator.Generate(ctx, token, sel)
	if err != nil {
		return nil, false, err
	}

	rec := &domain.Recipe{
		UserID:   res.UserID,
		Country:  res.Country,
		MainFood: res.MainFood,
		MainDish: res.MainDish,
		Content:  res.Recipe,
	}
	if err := repo.CreateRecipe(ctx, s.DB, rec); err != nil {
		return nil, false, err
	}
	s.Idem.Remember(ctx, res.UserID, ScopeGenerateRecipe, idemKey, rec.ID, http.StatusCreated)
	return toGenerated(rec), false, nil
}

func (s *RecipeService) replay(ctx context.Context, userID, key string) (*GeneratedRecipe, bool) {
	id, ok := s.Idem.Resource(ctx, userID, ScopeGenerateRecipe, key)
	if !ok {
		return nil, false
	}
	r, err := repo.GetRecipe(ctx, s.DB, id, userID)
	if err != nil {
		return nil, false
	}
	return toGenerated(r), true
}

// List returns a page of userID's saved recipes and the total count.
func (s *RecipeService) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Recipe, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	total, err := repo.CountRecipesByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Recipe{}, 0, nil
	}
	items, err := repo.ListRecipesByUser(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Stats reports the size and freshness of userID's recipe list for ETags.
func (s *RecipeService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.RecipesStats(ctx, s.DB, userID)
}

// Get fetches one of userID's recipes.
func (s *RecipeService) Get(ctx context.Context, userID, id string) (*domain.Recipe, error) {
	r, err := repo.GetRecipe(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecipeNotFound
	}
	return r, err
}

func toGenerated(r *domain.Recipe) *GeneratedRecipe {
	return &GeneratedRecipe{
		ID: r.ID,
		Result: recipe.Result{
			Recipe:   r.Content,
			UserID:   r.UserID,
			Country:  r.Country,
			MainFood: r.MainFood,
			MainDish: r.MainDish,
		},
		CreatedAt: r.CreatedAt,
	}
}
