// Like HTTP handlers.
//
//   - POST /dishes/{id}/like   (toggle)
//   - GET  /dishes/{id}/like   (state for the caller)
//   - GET  /me/likes           (dishes the caller likes)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ToggleLike godoc
// @ID          toggleLike
// @Summary     Like or unlike a dish
// @Description Flips the caller's like and returns the new state with the dish's like count.
// @Tags        Likes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string  true  "Dish ID (UUID)"  format(uuid)
// @Success     200  {object} services.LikeState
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Dish not found"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Router      /dishes/{id}/like [post]
func (h *Handlers) ToggleLike(c *gin.Context) {
	id, valid := dishID(c)
	if !valid {
		return
	}
	st, err := h.likes.Toggle(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// GetLike godoc
// @ID          getLike
// @Summary     Like state of a dish
// @Tags        Likes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string  true  "Dish ID (UUID)"  format(uuid)
// @Success     200  {object} services.LikeState
// @Failure     404  {object} handlers.ErrorResponse "Dish not found"
// @Router      /dishes/{id}/like [get]
func (h *Handlers) GetLike(c *gin.Context) {
	id, valid := dishID(c)
	if !valid {
		return
	}
	st, err := h.likes.State(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// ListLiked godoc
// @ID          listLiked
// @Summary     Dishes the caller likes
// @Tags        Likes
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query  int  false  "Max items"  minimum(1) maximum(100)
// @Success     200  {object} handlers.ListDishesResponse
// @Router      /me/likes [get]
func (h *Handlers) ListLiked(c *gin.Context) {
	limit, valid := queryLimit(c, 100)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidLimit)
		return
	}
	items, err := h.likes.Liked(c.Request.Context(), userID(c), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, dishList(items))
}
