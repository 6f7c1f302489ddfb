// User profile HTTP handlers.
//
//   - POST /users        (register a profile for the token subject)
//   - GET  /me, PUT /me
//   - GET  /users/{id}   (public profile, no email)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/http/middleware"
	"github.com/tbourn/recipe-roulette/internal/services"
)

// PublicProfile is what other users see.
type PublicProfile struct {
	ID              string    `json:"id"                          example:"auth0|42"`
	DisplayName     string    `json:"display_name"                example:"Taro"`
	Bio             string    `json:"bio,omitempty"               example:"Loves ramen"`
	ProfileImageURL string    `json:"profile_image_url,omitempty" example:"https://example.com/taro.png"`
	CreatedAt       time.Time `json:"created_at"`
}

func publicProfile(u *domain.User) PublicProfile {
	return PublicProfile{
		ID:              u.ID,
		DisplayName:     u.DisplayName,
		Bio:             u.Bio,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
	}
}

// RegisterUser godoc
// @ID          registerUser
// @Summary     Create the caller's profile
// @Description Registers a profile keyed by the token subject. The email defaults to the token's email claim.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  services.ProfileInput  true  "Profile"
// @Success     201  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Missing or invalid field"
// @Failure     409  {object} handlers.ErrorResponse "Profile or email already registered"
// @Router      /users [post]
func (h *Handlers) RegisterUser(c *gin.Context) {
	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	u, err := h.users.Register(c.Request.Context(), userID(c), c.GetString(middleware.EmailKey), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// GetMe godoc
// @ID          getMe
// @Summary     The caller's profile
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object} domain.User
// @Failure     404  {object} handlers.ErrorResponse "No profile yet"
// @Router      /me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update the caller's profile
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  services.ProfileInput  true  "Fields to change"
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Invalid field"
// @Failure     404  {object} handlers.ErrorResponse "No profile yet"
// @Failure     409  {object} handlers.ErrorResponse "Email already registered"
// @Router      /me [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	u, err := h.users.Update(c.Request.Context(), userID(c), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// GetUser godoc
// @ID          getUser
// @Summary     Public profile
// @Tags        Users
// @Produce     json
// @Param       id   path  string  true  "User ID"
// @Success     200  {object} handlers.PublicProfile
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, publicProfile(u))
}
