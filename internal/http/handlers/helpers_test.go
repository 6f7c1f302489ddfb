package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/recipe-roulette/internal/apperr"
	"github.com/tbourn/recipe-roulette/internal/auth"
	"github.com/tbourn/recipe-roulette/internal/cache"
	"github.com/tbourn/recipe-roulette/internal/http/middleware"
	"github.com/tbourn/recipe-roulette/internal/ratelimit"
	"github.com/tbourn/recipe-roulette/internal/recipe"
	"github.com/tbourn/recipe-roulette/internal/repo"
	"github.com/tbourn/recipe-roulette/internal/roulette"
	"github.com/tbourn/recipe-roulette/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

// Tokens of the form "ok:<uid>" are valid for user <uid>.
var testVerifier = auth.VerifierFunc(func(_ context.Context, token string) (auth.Identity, error) {
	uid, found := strings.CutPrefix(token, "ok:")
	if !found || uid == "" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return auth.Identity{UserID: uid, Email: uid + "@example.com"}, nil
})

// fakeGenerator stands in for the AI proxy.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *fakeGenerator) Generate(ctx context.Context, token string, sel roulette.Selection) (*recipe.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if token == "" {
		return nil, apperr.Authentication(recipe.MsgNoToken)
	}
	id, err := testVerifier.Verify(ctx, token)
	if err != nil {
		return nil, apperr.Authentication(recipe.MsgInvalidToken)
	}
	if !sel.Complete() {
		return nil, apperr.Validation(recipe.MsgMissingFields)
	}
	if g.err != nil {
		return nil, g.err
	}
	return &recipe.Result{
		Recipe:   "Step 1: cook " + sel.MainDish,
		UserID:   id.UserID,
		Country:  sel.Country,
		MainFood: sel.StapleFood,
		MainDish: sel.MainDish,
	}, nil
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type testEnv struct {
	r      *gin.Engine
	db     *gorm.DB
	dishes *services.DishService
	engine *roulette.Engine
	gen    *fakeGenerator
	limits *ratelimit.Set
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newTestEnv mounts every handler on a bare router with real services.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	c := cache.New[any]("handlers_test", cache.WithDefaultTTL(time.Minute))
	idem := services.NewIdempotency(db, time.Hour)

	dishes := services.NewDishService(db, c)
	dishes.Idem = idem
	engine := roulette.NewEngine(dishes, roulette.Options{Frames: 3})
	gen := &fakeGenerator{}
	recipes := services.NewRecipeService(db, gen, engine)
	recipes.Idem = idem
	limits := ratelimit.NewSet(ratelimit.DefaultSetConfig())

	h := New(Deps{
		Dishes:   dishes,
		Likes:    services.NewLikeService(db, c),
		Users:    services.NewUserService(db, c),
		Roulette: engine,
		Recipes:  recipes,
		Limits:   limits,
	})

	r := gin.New()
	r.Use(middleware.RequestID())
	authn := middleware.RequireAuth(testVerifier)
	opt := middleware.OptionalAuth(testVerifier)
	idemOpts := middleware.IdempotencyOptions{}

	r.GET("/dishes", opt, h.ListDishes)
	r.GET("/dishes/:id", h.GetDish)
	r.POST("/dishes", authn, middleware.IdempotencyValidator(services.ScopeCreateDish, idemOpts, idem.Exists), h.CreateDish)
	r.PUT("/dishes/:id", authn, h.UpdateDish)
	r.DELETE("/dishes/:id", authn, h.DeleteDish)
	r.GET("/search/dishes", h.SearchDishes)
	r.GET("/users/:id/dishes", h.ListUserDishes)

	r.POST("/dishes/:id/like", authn, h.ToggleLike)
	r.GET("/dishes/:id/like", authn, h.GetLike)
	r.GET("/me/likes", authn, h.ListLiked)

	r.POST("/users", authn, h.RegisterUser)
	r.GET("/me", authn, h.GetMe)
	r.PUT("/me", authn, h.UpdateMe)
	r.GET("/users/:id", h.GetUser)

	r.GET("/roulette/countries", h.ListCountries)
	r.POST("/roulette/sessions", h.StartSession)
	r.GET("/roulette/sessions/:id", h.GetSession)
	r.POST("/roulette/sessions/:id/spin", h.Spin)
	r.POST("/roulette/sessions/:id/reset", h.ResetSession)

	r.POST("/recipes/generate", opt, middleware.IdempotencyValidator(services.ScopeGenerateRecipe, idemOpts, idem.Exists), h.GenerateRecipe)
	r.GET("/me/recipes", authn, h.ListRecipes)
	r.GET("/recipes/:id", authn, h.GetRecipe)

	r.GET("/rate-limit", opt, h.RateLimitStatus)

	return &testEnv{r: r, db: db, dishes: dishes, engine: engine, gen: gen, limits: limits}
}

// do sends a request; token may be empty. Extra headers come in name/value
// pairs.
func (e *testEnv) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code = %q, want %q", er.Code, code)
	}
	return er
}

const karaage = `{"name":"唐揚げ","name_en":"karaage","country":"Japan","region":"Asia","category":"main_dish"}`

func dishJSON(name, country, region, category string) string {
	return fmt.Sprintf(`{"name":%q,"country":%q,"region":%q,"category":%q}`, name, country, region, category)
}
