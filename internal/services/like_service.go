// Package services – LikeService
//
// LikeService toggles likes and lists what a user likes. The like record and
// the dish's denormalized counter change in one transaction (see
// repo.ToggleLike); afterwards popularity listings and the caller's
// liked-dish view are invalidated.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/recipe-roulette/internal/cache"
	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/repo"
)

// LikeState is the outcome of a toggle.
type LikeState struct {
	DishID     string `json:"dish_id"     example:"6f1c2a57-1111-4c2b-9a0e-5b7f1c2d3e4f"`
	Liked      bool   `json:"liked"       example:"true"`
	LikesCount int    `json:"likes_count" example:"12"`
}

type LikeService struct {
	DB    *gorm.DB
	Cache *cache.Cache[any]
}

func NewLikeService(db *gorm.DB, c *cache.Cache[any]) *LikeService {
	return &LikeService{DB: db, Cache: c}
}

// Toggle likes dishID for userID, or removes the like if present.
func (s *LikeService) Toggle(ctx context.Context, userID, dishID string) (*LikeState, error) {
	ctx, span := otel.Tracer("services/LikeService").Start(ctx, "Toggle",
		trace.WithAttributes(attribute.String("dish.id", dishID), attribute.String("user.id", userID)))
	defer span.End()

	liked, n, err := repo.ToggleLike(ctx, s.DB, userID, dishID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDishNotFound
		}
		return nil, err
	}
	s.Cache.DeletePrefix(cache.PrefixDishes, cache.PrefixSearch)
	s.Cache.DeleteContaining(userID)
	return &LikeState{DishID: dishID, Liked: liked, LikesCount: n}, nil
}

// State reports whether userID likes dishID together with the current count.
func (s *LikeService) State(ctx context.Context, userID, dishID string) (*LikeState, error) {
	d, err := repo.GetDish(ctx, s.DB, dishID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDishNotFound
		}
		return nil, err
	}
	liked, err := repo.IsLiked(ctx, s.DB, userID, dishID)
	if err != nil {
		return nil, err
	}
	return &LikeState{DishID: dishID, Liked: liked, LikesCount: d.LikesCount}, nil
}

// Liked lists the dishes userID likes, most recently liked first.
func (s *LikeService) Liked(ctx context.Context, userID string, limit int) ([]domain.Dish, error) {
	if limit <= 0 {
		limit = repo.DefaultListLimit
	}
	out, err := cache.GetOrLoad(ctx, s.Cache, cache.UserLikedKey(userID), 0, func(ctx context.Context) ([]domain.Dish, error) {
		return repo.ListLikedDishes(ctx, s.DB, userID, repo.DefaultListLimit*2)
	})
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
