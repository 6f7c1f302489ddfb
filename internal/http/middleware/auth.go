package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/recipe-roulette/internal/apperr"
	"github.com/tbourn/recipe-roulette/internal/auth"
	"github.com/tbourn/recipe-roulette/internal/recipe"
)

const (
	// UserIDKey holds the authenticated subject in the Gin context.
	UserIDKey = "userID"
	// EmailKey holds the email claim of the bearer token, when present.
	EmailKey = "userEmail"
	// TokenKey holds the raw bearer token for handlers that forward it.
	TokenKey = "bearerToken"
)

// RequireAuth verifies the bearer token and stores the caller's identity.
// Requests without a token or with an invalid one are rejected with 401.
func RequireAuth(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c, v); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth stores the caller's identity when a valid token is present and
// otherwise lets the request through anonymously. A presented token is kept
// even when invalid so downstream code can report the precise failure.
func OptionalAuth(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = authenticate(c, v)
		c.Next()
	}
}

func authenticate(c *gin.Context, v auth.Verifier) error {
	token := auth.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		return apperr.Authentication(recipe.MsgNoToken)
	}
	c.Set(TokenKey, token)

	id, err := v.Verify(c.Request.Context(), token)
	if err != nil {
		LoggerFrom(c).Debug().Err(err).Msg("token rejected")
		if errors.Is(err, auth.ErrNoToken) {
			return apperr.Authentication(recipe.MsgNoToken)
		}
		return apperr.Authentication(recipe.MsgInvalidToken)
	}
	c.Set(UserIDKey, id.UserID)
	if id.Email != "" {
		c.Set(EmailKey, id.Email)
	}
	return nil
}

// UserID returns the authenticated subject, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
