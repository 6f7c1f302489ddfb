// Package recipe forwards completed roulette selections to the external AI
// recipe service and normalizes what comes back.
package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/recipe-roulette/internal/apperr"
	"github.com/tbourn/recipe-roulette/internal/auth"
	"github.com/tbourn/recipe-roulette/internal/ratelimit"
	"github.com/tbourn/recipe-roulette/internal/roulette"
)

// User-facing messages.
const (
	MsgNoToken       = "Unauthorized: No token provided"
	MsgInvalidToken  = "Unauthorized: Invalid token"
	MsgMissingFields = "Missing required fields: country, mainFood, mainDish"
	MsgNoRecipe      = "No recipe generated"
	MsgTimeout       = "Recipe service timed out"
	msgUnreachable   = "Failed to reach recipe service"
	msgBadResponse   = "Invalid response from recipe service"
)

// maxBody caps how much of an upstream body is read.
const maxBody = 1 << 20

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recipe_requests_total",
	Help: "Recipe generation requests by outcome.",
}, []string{"outcome"})

// Limiter gates calls per caller. *ratelimit.Limiter satisfies it.
type Limiter interface {
	Check(id string) error
}

// Config points the proxy at the AI service.
type Config struct {
	URL     string
	APIKey  string // sent as a bearer token when set
	Timeout time.Duration
	Client  *http.Client
}

// Result is a generated recipe together with the inputs that produced it.
type Result struct {
	Recipe   string `json:"recipe"`
	UserID   string `json:"user_id"`
	Country  string `json:"country"`
	MainFood string `json:"main_food"`
	MainDish string `json:"main_dish"`
}

// Proxy authenticates, rate-gates and forwards recipe requests.
type Proxy struct {
	verifier auth.Verifier
	limiter  Limiter
	client   *http.Client
	url      string
	apiKey   string
	timeout  time.Duration
}

// NewProxy builds a Proxy. A nil limiter disables rate gating.
func NewProxy(cfg Config, v auth.Verifier, lim Limiter) *Proxy {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := cfg.Client
	if c == nil {
		c = &http.Client{Timeout: cfg.Timeout}
	}
	return &Proxy{
		verifier: v,
		limiter:  lim,
		client:   c,
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
	}
}

type upstreamRequest struct {
	Inputs struct {
		Country string `json:"country"`
		Main    string `json:"main"`
		Dish    string `json:"dish"`
	} `json:"inputs"`
	User string `json:"user"`
}

type upstreamResponse struct {
	Data *struct {
		Outputs *struct {
			Result string `json:"result"`
		} `json:"outputs"`
	} `json:"data"`
}

// Generate produces a recipe for sel on behalf of the holder of token.
func (p *Proxy) Generate(ctx context.Context, token string, sel roulette.Selection) (*Result, error) {
	ctx, span := otel.Tracer("recipe").Start(ctx, "Generate",
		trace.WithAttributes(attribute.String("recipe.country", sel.Country)))
	defer span.End()

	res, outcome, err := p.generate(ctx, token, sel)
	requestsTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", res.UserID))
	return res, nil
}

func (p *Proxy) generate(ctx context.Context, token string, sel roulette.Selection) (*Result, string, error) {
	if token == "" {
		return nil, "unauthorized", apperr.Authentication(MsgNoToken)
	}
	id, err := p.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			return nil, "unauthorized", apperr.Authentication(MsgNoToken)
		}
		return nil, "unauthorized", apperr.Authentication(MsgInvalidToken)
	}

	sel = trimSelection(sel)
	if !sel.Complete() {
		return nil, "invalid", apperr.Validation(MsgMissingFields)
	}

	if p.limiter != nil {
		// Same bucket the general route throttle charges for this caller.
		if err := p.limiter.Check(ratelimit.UserKey(id.UserID)); err != nil {
			return nil, "rate_limited", err
		}
	}

	recipe, err := p.call(ctx, id.UserID, sel)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindEmptyResult:
			return nil, "empty", err
		default:
			if ae, ok := apperr.As(err); ok && ae.Timeout {
				return nil, "timeout", err
			}
			return nil, "upstream_error", err
		}
	}

	return &Result{
		Recipe:   recipe,
		UserID:   id.UserID,
		Country:  sel.Country,
		MainFood: sel.StapleFood,
		MainDish: sel.MainDish,
	}, "ok", nil
}

func (p *Proxy) call(ctx context.Context, userID string, sel roulette.Selection) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var in upstreamRequest
	in.Inputs.Country = sel.Country
	in.Inputs.Main = sel.StapleFood
	in.Inputs.Dish = sel.MainDish
	in.User = userID
	body, err := json.Marshal(in)
	if err != nil {
		return "", apperr.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			log.Warn().Err(err).Str("user_id", userID).Msg("recipe service timeout")
			return "", apperr.Timeout(MsgTimeout, err)
		}
		log.Error().Err(err).Str("user_id", userID).Msg("recipe service unreachable")
		return "", apperr.Unavailable(msgUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if isTimeout(ctx, err) {
			return "", apperr.Timeout(MsgTimeout, err)
		}
		return "", apperr.Unavailable(msgUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ErrorMessage(raw, resp.StatusCode)
		log.Error().
			Int("status", resp.StatusCode).
			Str("user_id", userID).
			Str("body", apperr.Truncate(string(raw), 2000)).
			Msg("recipe service error")
		return "", apperr.Upstream(msg, fmt.Errorf("recipe: upstream status %d", resp.StatusCode))
	}

	var out upstreamResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Error().Err(err).Str("body", apperr.Truncate(string(raw), 2000)).Msg("recipe service decode")
		return "", apperr.Upstream(msgBadResponse, err)
	}
	if out.Data == nil || out.Data.Outputs == nil || strings.TrimSpace(out.Data.Outputs.Result) == "" {
		return "", apperr.EmptyResult(MsgNoRecipe)
	}
	return out.Data.Outputs.Result, nil
}

// ErrorMessage extracts a human-readable message from an upstream error body.
// It understands {"message": ...}, {"error": "..."} and {"error": {"message":
// ...}}; anything else falls back to the raw body cut to
// apperr.MaxUpstreamMessage runes, or the status text when the body is empty.
func ErrorMessage(body []byte, status int) string {
	var env struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		if m := strings.TrimSpace(env.Message); m != "" {
			return apperr.Truncate(m, apperr.MaxUpstreamMessage)
		}
		if len(env.Error) > 0 {
			var s string
			if json.Unmarshal(env.Error, &s) == nil && strings.TrimSpace(s) != "" {
				return apperr.Truncate(strings.TrimSpace(s), apperr.MaxUpstreamMessage)
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(env.Error, &nested) == nil && strings.TrimSpace(nested.Message) != "" {
				return apperr.Truncate(strings.TrimSpace(nested.Message), apperr.MaxUpstreamMessage)
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return apperr.Truncate(s, apperr.MaxUpstreamMessage)
	}
	if t := http.StatusText(status); t != "" {
		return t
	}
	return fmt.Sprintf("upstream status %d", status)
}

func trimSelection(s roulette.Selection) roulette.Selection {
	return roulette.Selection{
		Country:    strings.TrimSpace(s.Country),
		StapleFood: strings.TrimSpace(s.StapleFood),
		MainDish:   strings.TrimSpace(s.MainDish),
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
