// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, authentication and rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/recipe-roulette/docs"
	"github.com/tbourn/recipe-roulette/internal/config"
	"github.com/tbourn/recipe-roulette/internal/http/handlers"
	"github.com/tbourn/recipe-roulette/internal/http/middleware"
	"github.com/tbourn/recipe-roulette/internal/services"
)

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "Retry-After", "ETag", "Idempotency-Replayed", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Edge token bucket (per user/IP)
//  8. Gzip
//  9. CORS and security headers
//
// Authentication, idempotency and the per-class quotas are installed per
// route group, in that order, so quotas are keyed by the authenticated user
// and replays skip them.
func RegisterRoutes(r *gin.Engine, app *App, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Burst guard; RATE_RPS=0 turns it off
	if cfg.RateLimit.EdgeRPS > 0 {
		r.Use(middleware.NewEdgeLimiter(cfg.RateLimit.EdgeRPS, cfg.RateLimit.EdgeBurst, nil).Handler())
	}

	// 8) Recipes are long text
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{joinPath(apiBase, "/me"), joinPath(apiBase, "/roulette")},
		EnablePolicy:    true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(handlers.Deps{
		Dishes:   app.Dishes,
		Likes:    app.Likes,
		Users:    app.Users,
		Roulette: app.Engine,
		Recipes:  app.Recipes,
		Limits:   app.Limits,
	})

	var (
		requireAuth  = middleware.RequireAuth(app.Verifier)
		optionalAuth = middleware.OptionalAuth(app.Verifier)
		general      = middleware.Throttle(app.Limits.General, nil)
		search       = middleware.Throttle(app.Limits.Search, nil)
		write        = middleware.Throttle(app.Limits.Write, nil)
		idemOpts     = middleware.IdempotencyOptions{MaxLen: 200}
	)

	api := groupWithPrefix(r, apiBase)

	// Public reads
	pub := api.Group("", optionalAuth, general)
	{
		pub.GET("/dishes", h.ListDishes)
		pub.GET("/dishes/:id", h.GetDish)
		pub.GET("/users/:id", h.GetUser)
		pub.GET("/users/:id/dishes", h.ListUserDishes)
		pub.GET("/roulette/countries", h.ListCountries)
		pub.GET("/rate-limit", h.RateLimitStatus)
	}
	api.GET("/search/dishes", optionalAuth, search, h.SearchDishes)

	// Roulette sessions are anonymous; the id is the capability.
	spin := api.Group("/roulette/sessions", optionalAuth, general)
	{
		spin.POST("", h.StartSession)
		spin.GET("/:id", h.GetSession)
		spin.POST("/:id/spin", h.Spin)
		spin.POST("/:id/reset", h.ResetSession)
	}

	// Signed-in reads
	me := api.Group("", requireAuth, general)
	{
		me.GET("/me", h.GetMe)
		me.GET("/me/likes", h.ListLiked)
		me.GET("/me/recipes", h.ListRecipes)
		me.GET("/recipes/:id", h.GetRecipe)
		me.GET("/dishes/:id/like", h.GetLike)
	}

	// Content writes
	wr := api.Group("", requireAuth)
	{
		wr.POST("/dishes",
			middleware.IdempotencyValidator(services.ScopeCreateDish, idemOpts, app.Idem.Exists),
			write, h.CreateDish)
		wr.PUT("/dishes/:id", write, h.UpdateDish)
		wr.DELETE("/dishes/:id", write, h.DeleteDish)
		wr.POST("/dishes/:id/like", general, h.ToggleLike)
		wr.POST("/users", write, h.RegisterUser)
		wr.PUT("/me", write, h.UpdateMe)
	}

	// The recipe proxy verifies the token and applies the general quota
	// itself, so only identity and idempotency are resolved here.
	api.POST("/recipes/generate",
		optionalAuth,
		middleware.IdempotencyValidator(services.ScopeGenerateRecipe, idemOpts, app.Idem.Exists),
		h.GenerateRecipe)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	if base == "/" {
		return p
	}
	return base + p
}
