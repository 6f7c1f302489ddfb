package httpapi

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/recipe-roulette/internal/auth"
	"github.com/tbourn/recipe-roulette/internal/cache"
	"github.com/tbourn/recipe-roulette/internal/config"
	"github.com/tbourn/recipe-roulette/internal/ratelimit"
	"github.com/tbourn/recipe-roulette/internal/recipe"
	"github.com/tbourn/recipe-roulette/internal/roulette"
	"github.com/tbourn/recipe-roulette/internal/services"
)

// App holds the long-lived collaborators shared by the router and the
// background janitors started from main.
type App struct {
	DB       *gorm.DB
	Cache    *cache.Cache[any]
	Limits   *ratelimit.Set
	Verifier auth.Verifier
	Idem     *services.Idempotency

	Dishes  *services.DishService
	Likes   *services.LikeService
	Users   *services.UserService
	Engine  *roulette.Engine
	Recipes *services.RecipeService

	cfg config.Config
}

// NewApp builds every service from cfg. Fields may be replaced before
// RegisterRoutes is called (tests swap the recipe generator, for instance).
func NewApp(db *gorm.DB, cfg config.Config) *App {
	c := cache.New[any]("app", cache.WithDefaultTTL(cfg.Cache.TTL))
	limits := ratelimit.NewSet(ratelimit.SetConfig{
		General: cfg.RateLimit.General,
		Search:  cfg.RateLimit.Search,
		Write:   cfg.RateLimit.Write,
		Window:  cfg.RateLimit.Window,
		IdleTTL: cfg.RateLimit.IdleTTL,
	})
	verifier := auth.NewHMACVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	idem := services.NewIdempotency(db, cfg.IdempotencyTTL)

	dishes := services.NewDishService(db, c)
	dishes.TTL = cfg.Cache.TTL
	dishes.Idem = idem
	if cfg.Search.ScanWindow > 0 {
		dishes.ScanWindow = cfg.Search.ScanWindow
	}
	if cfg.Search.MaxResults > 0 {
		dishes.MaxResults = cfg.Search.MaxResults
	}

	engine := roulette.NewEngine(dishes, roulette.Options{
		SessionTTL:   cfg.Roulette.SessionTTL,
		SpinCooldown: cfg.Roulette.SpinCooldown,
		Frames:       cfg.Roulette.Frames,
	})

	proxy := recipe.NewProxy(recipe.Config{
		URL:     cfg.Recipe.APIURL,
		APIKey:  cfg.Recipe.APIKey,
		Timeout: cfg.Recipe.Timeout,
	}, verifier, limits.General)
	recipes := services.NewRecipeService(db, proxy, engine)
	recipes.Idem = idem

	return &App{
		DB:       db,
		Cache:    c,
		Limits:   limits,
		Verifier: verifier,
		Idem:     idem,
		Dishes:   dishes,
		Likes:    services.NewLikeService(db, c),
		Users:    services.NewUserService(db, c),
		Engine:   engine,
		Recipes:  recipes,
		cfg:      cfg,
	}
}

// Run starts the janitors (cache sweep, idle limiter purge, abandoned
// roulette sessions, expired idempotency keys) and blocks until ctx is done.
func (a *App) Run(ctx context.Context) {
	go a.Cache.Run(ctx, a.cfg.Cache.CleanupInterval)
	go a.Limits.Run(ctx, a.cfg.RateLimit.CleanupInterval)
	go a.Engine.Run(ctx, time.Minute)
	go a.Idem.Run(ctx, time.Hour)

	log.Debug().Msg("background janitors started")
	<-ctx.Done()
}
