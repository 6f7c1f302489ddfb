package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/recipe-roulette/internal/http/middleware"
	"github.com/tbourn/recipe-roulette/internal/ratelimit"
)

// RateLimitResponse reports each request class for the caller.
type RateLimitResponse struct {
	Key     string                    `json:"key" example:"user:auth0|42"`
	Classes map[string]ratelimit.Info `json:"classes"`
}

// RateLimitStatus godoc
// @ID          rateLimitStatus
// @Summary     Remaining quota
// @Description Remaining requests, limit and seconds until reset for the general, search and write classes. Callers are identified by token subject or client IP.
// @Tags        System
// @Produce     json
// @Success     200  {object} handlers.RateLimitResponse
// @Router      /rate-limit [get]
func (h *Handlers) RateLimitStatus(c *gin.Context) {
	key := middleware.KeyByUserOrIP()(c)
	ok(c, http.StatusOK, RateLimitResponse{Key: key, Classes: h.limits.Info(key)})
}
