// Package handlers exposes the REST endpoints of the recipe roulette API.
//
// Handlers are transport-thin: they parse and bound input, call application
// services and translate results (including classified errors and
// conditional responses) into HTTP. Identity comes from the auth middleware.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/http/middleware"
	"github.com/tbourn/recipe-roulette/internal/ratelimit"
	"github.com/tbourn/recipe-roulette/internal/roulette"
	"github.com/tbourn/recipe-roulette/internal/services"
	"github.com/tbourn/recipe-roulette/internal/utils"
)

//
// Service contracts (context-aware)
//

// DishService covers the dish catalog.
type DishService interface {
	List(ctx context.Context, category, sort string, limit int) ([]domain.Dish, error)
	Stats(ctx context.Context, category string) (int64, *time.Time, error)
	Get(ctx context.Context, id string) (*domain.Dish, error)
	ByAuthor(ctx context.Context, authorID string, limit int) ([]domain.Dish, error)
	CreateOnce(ctx context.Context, userID, key string, in services.DishInput) (*domain.Dish, bool, error)
	Update(ctx context.Context, userID, id string, in services.DishInput) (*domain.Dish, error)
	Delete(ctx context.Context, userID, id string) error
	Search(ctx context.Context, q string, limit int) ([]domain.Dish, error)
}

// LikeService toggles and reports likes.
type LikeService interface {
	Toggle(ctx context.Context, userID, dishID string) (*services.LikeState, error)
	State(ctx context.Context, userID, dishID string) (*services.LikeState, error)
	Liked(ctx context.Context, userID string, limit int) ([]domain.Dish, error)
}

// UserService manages profiles keyed by the token subject.
type UserService interface {
	Register(ctx context.Context, userID, tokenEmail string, in services.ProfileInput) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, in services.ProfileInput) (*domain.User, error)
}

// Roulette drives spin sessions. *roulette.Engine satisfies it.
type Roulette interface {
	NewSession(region string) (roulette.Snapshot, error)
	Get(id string) (roulette.Snapshot, error)
	Reset(id string) (roulette.Snapshot, error)
	Spin(ctx context.Context, id string) (*roulette.SpinResult, error)
	Countries(ctx context.Context, region string) ([]string, error)
}

// RecipeService generates and lists saved recipes.
type RecipeService interface {
	Generate(ctx context.Context, token, userID, idemKey string, in services.GenerateInput) (*services.GeneratedRecipe, bool, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]domain.Recipe, int64, error)
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
	Get(ctx context.Context, userID, id string) (*domain.Recipe, error)
}

// RateLimits reports per-class quota state. *ratelimit.Set satisfies it.
type RateLimits interface {
	Info(id string) map[string]ratelimit.Info
}

//
// Handler wiring
//

// Handlers groups every endpoint behind its service contracts.
type Handlers struct {
	dishes   DishService
	likes    LikeService
	users    UserService
	roulette Roulette
	recipes  RecipeService
	limits   RateLimits
}

// Deps lists the services the handlers depend on.
type Deps struct {
	Dishes   DishService
	Likes    LikeService
	Users    UserService
	Roulette Roulette
	Recipes  RecipeService
	Limits   RateLimits
}

func New(d Deps) *Handlers {
	return &Handlers{
		dishes:   d.Dishes,
		likes:    d.Likes,
		users:    d.Users,
		roulette: d.Roulette,
		recipes:  d.Recipes,
		limits:   d.Limits,
	}
}

//
// DTOs
//

// Pagination carries paging metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

func userID(c *gin.Context) string { return middleware.UserID(c) }

// clampPagination bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return page, pageSize
}

// queryLimit parses ?limit=. Missing means 0 (service default); values
// above maxLimit are capped. valid is false for non-numeric or negative input.
func queryLimit(c *gin.Context, maxLimit int) (limit int, valid bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n := utils.AtoiDefault(raw, -1)
	if n < 0 {
		return 0, false
	}
	return utils.Clamp(n, 0, maxLimit), true
}

func pagination(page, pageSize int, total int64) Pagination {
	pages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}
