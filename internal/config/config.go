// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the HTTP
// server, logging, the dish store, caching, rate limiting, the roulette engine,
// the recipe generation upstream, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "recipe-roulette")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and addresses the dish store.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file path
	URL    string // Postgres DSN
}

// CacheConfig controls the read-through TTL cache.
type CacheConfig struct {
	TTL             time.Duration // default entry lifetime
	CleanupInterval time.Duration // background sweep period; 0 disables
}

// RateLimitConfig holds the sliding-window quotas per request class plus the
// coarse token bucket applied at the edge.
type RateLimitConfig struct {
	General         int           // requests per window, general API use
	Search          int           // requests per window, keyword search
	Write           int           // requests per window, content creation
	Window          time.Duration // trailing window length
	IdleTTL         time.Duration // identifiers idle longer than this are purged
	CleanupInterval time.Duration

	EdgeRPS   float64 // tokens per second (>= 0); 0 disables the edge bucket
	EdgeBurst int     // bucket size (>= 1)
}

// SearchConfig bounds keyword search.
type SearchConfig struct {
	ScanWindow int // most-recent dishes considered
	MaxResults int
}

// RouletteConfig controls spin sessions.
type RouletteConfig struct {
	SessionTTL   time.Duration
	SpinCooldown time.Duration // reel animation time during which re-spins are rejected
	Frames       int           // teaser values returned per spin
}

// RecipeConfig addresses the AI recipe generation service.
type RecipeConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB DBConfig

	// Domain
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
	Roulette  RouletteConfig
	Recipe    RecipeConfig
	Auth      AuthConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 45*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "app.db"),
			URL:    getenv("DATABASE_URL", ""),
		},

		Cache: CacheConfig{
			TTL:             getdur("CACHE_TTL", 5*time.Minute),
			CleanupInterval: getdur("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		},

		RateLimit: RateLimitConfig{
			General:         getint("RATE_LIMIT_GENERAL", 60),
			Search:          getint("RATE_LIMIT_SEARCH", 30),
			Write:           getint("RATE_LIMIT_WRITE", 20),
			Window:          getdur("RATE_LIMIT_WINDOW", time.Minute),
			IdleTTL:         getdur("RATE_LIMIT_IDLE_TTL", 5*time.Minute),
			CleanupInterval: getdur("RATE_LIMIT_CLEANUP_INTERVAL", time.Minute),
			EdgeRPS:         getfloat("RATE_RPS", 10.0),
			EdgeBurst:       getint("RATE_BURST", 20),
		},

		Search: SearchConfig{
			ScanWindow: getint("SEARCH_SCAN_WINDOW", 500),
			MaxResults: getint("SEARCH_MAX_RESULTS", 100),
		},

		Roulette: RouletteConfig{
			SessionTTL:   getdur("ROULETTE_SESSION_TTL", 30*time.Minute),
			SpinCooldown: getdur("ROULETTE_SPIN_COOLDOWN", 2*time.Second),
			Frames:       getint("ROULETTE_FRAMES", 20),
		},

		Recipe: RecipeConfig{
			APIURL:  getenv("DIFY_API_URL", "https://selectlanchserver.onrender.com/send-to-dify"),
			APIKey:  getenv("DIFY_API_KEY", ""),
			Timeout: getdur("RECIPE_TIMEOUT", 30*time.Second),
		},

		Auth: AuthConfig{
			JWTSecret: getenv("JWT_SECRET", ""),
			Issuer:    getenv("JWT_ISSUER", ""),
			Audience:  getenv("JWT_AUDIENCE", ""),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "recipe-roulette"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" || cfg.DB.Driver == "pg" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.Cache.TTL <= 0 {
		return cfg, errors.New("CACHE_TTL must be > 0")
	}
	if cfg.Cache.CleanupInterval < 0 {
		return cfg, errors.New("CACHE_CLEANUP_INTERVAL must be >= 0")
	}
	if cfg.RateLimit.General < 1 || cfg.RateLimit.Search < 1 || cfg.RateLimit.Write < 1 {
		return cfg, errors.New("RATE_LIMIT_GENERAL, RATE_LIMIT_SEARCH and RATE_LIMIT_WRITE must be >= 1")
	}
	if cfg.RateLimit.Window <= 0 || cfg.RateLimit.IdleTTL <= 0 {
		return cfg, errors.New("RATE_LIMIT_WINDOW and RATE_LIMIT_IDLE_TTL must be > 0")
	}
	if cfg.RateLimit.EdgeRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateLimit.EdgeBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Search.ScanWindow < 1 || cfg.Search.MaxResults < 1 {
		return cfg, errors.New("SEARCH_SCAN_WINDOW and SEARCH_MAX_RESULTS must be >= 1")
	}
	if cfg.Roulette.SessionTTL <= 0 {
		return cfg, errors.New("ROULETTE_SESSION_TTL must be > 0")
	}
	if cfg.Roulette.SpinCooldown < 0 || cfg.Roulette.Frames < 0 {
		return cfg, errors.New("ROULETTE_SPIN_COOLDOWN and ROULETTE_FRAMES must be >= 0")
	}
	if strings.TrimSpace(cfg.Recipe.APIURL) == "" {
		return cfg, errors.New("DIFY_API_URL must not be empty")
	}
	if cfg.Recipe.Timeout <= 0 {
		return cfg, errors.New("RECIPE_TIMEOUT must be > 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
