// Dish HTTP handlers.
//
// This file exposes the dish catalog:
//   - GET    /dishes              (list, cached, ETag)
//   - GET    /dishes/{id}
//   - POST   /dishes              (create, Idempotency-Key)
//   - PUT    /dishes/{id}         (author only)
//   - DELETE /dishes/{id}         (author only)
//   - GET    /search/dishes       (keyword search)
//   - GET    /users/{id}/dishes   (contributions)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/http/middleware"
	"github.com/tbourn/recipe-roulette/internal/services"
)

// ListDishesResponse wraps a dish listing.
type ListDishesResponse struct {
	Dishes []domain.Dish `json:"dishes"`
	Count  int           `json:"count" example:"2"`
}

func dishList(ds []domain.Dish) ListDishesResponse {
	if ds == nil {
		ds = []domain.Dish{}
	}
	return ListDishesResponse{Dishes: ds, Count: len(ds)}
}

// dishID validates the :id path parameter.
func dishID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidDish)
		return "", false
	}
	return id, true
}

// ListDishes godoc
// @ID          listDishes
// @Summary     List dishes
// @Description Lists dishes, optionally of one category, by popularity (default) or recency. Supports weak ETag via If-None-Match.
// @Tags        Dishes
// @Produce     json
//
// @Param       category       query   string  false "Category"        Enums(main_food, main_dish, side_dish, dessert)
// @Param       sort           query   string  false "Sort order"      Enums(popular, recent) default(popular)
// @Param       limit          query   int     false "Max items"       minimum(1) maximum(100) default(50)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListDishesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid category or sort"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Router      /dishes [get]
func (h *Handlers) ListDishes(c *gin.Context) {
	ctx := c.Request.Context()
	category, sort := c.Query("category"), c.Query("sort")
	limit, valid := queryLimit(c, 100)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidLimit)
		return
	}

	// ETag pre-check (best effort); invalid filters fall through to the
	// service for a proper validation error.
	if category == "" || domain.Category(category).Valid() {
		if count, latest, err := h.dishes.Stats(ctx, category); err == nil {
			scope := fmt.Sprintf("dishes:%s:%s:%d", category, sort, limit)
			if notModified(c, scope, count, latest) {
				return
			}
		}
	}

	items, err := h.dishes.List(ctx, category, sort, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, dishList(items))
}

// GetDish godoc
// @ID          getDish
// @Summary     Get a dish
// @Tags        Dishes
// @Produce     json
// @Param       id   path  string  true  "Dish ID (UUID)"  format(uuid)
// @Success     200  {object} domain.Dish
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Dish not found"
// @Router      /dishes/{id} [get]
func (h *Handlers) GetDish(c *gin.Context) {
	id, valid := dishID(c)
	if !valid {
		return
	}
	d, err := h.dishes.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// CreateDish godoc
// @ID          createDish
// @Summary     Register a dish
// @Description Adds a dish authored by the caller. A retry with the same Idempotency-Key returns the original dish with Idempotency-Replayed: true.
// @Tags        Dishes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Deduplicates retries"  example(9b1d3c1e-create-1)
// @Param       body             body    services.DishInput  true  "Dish"
//
// @Success     201  {object} domain.Dish
// @Success     200  {object} domain.Dish "Replayed"
// @Failure     400  {object} handlers.ErrorResponse "Missing or invalid field"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     409  {object} handlers.ErrorResponse "Dish already registered"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Router      /dishes [post]
func (h *Handlers) CreateDish(c *gin.Context) {
	var in services.DishInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	d, replay, err := h.dishes.CreateOnce(c.Request.Context(), userID(c), key, in)
	if err != nil {
		failErr(c, err)
		return
	}
	if replay {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, d)
		return
	}
	ok(c, http.StatusCreated, d)
}

// UpdateDish godoc
// @ID          updateDish
// @Summary     Update a dish
// @Description Applies the provided fields. Only the author may update a dish.
// @Tags        Dishes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string  true  "Dish ID (UUID)"  format(uuid)
// @Param       body  body  services.DishInput  true  "Fields to change"
// @Success     200  {object} domain.Dish
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Dish not found"
// @Failure     409  {object} handlers.ErrorResponse "Dish already registered"
// @Router      /dishes/{id} [put]
func (h *Handlers) UpdateDish(c *gin.Context) {
	id, valid := dishID(c)
	if !valid {
		return
	}
	var in services.DishInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	d, err := h.dishes.Update(c.Request.Context(), userID(c), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// DeleteDish godoc
// @ID          deleteDish
// @Summary     Delete a dish
// @Tags        Dishes
// @Security    BearerAuth
// @Param       id   path  string  true  "Dish ID (UUID)"  format(uuid)
// @Success     204  {string} string "No Content"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Dish not found"
// @Router      /dishes/{id} [delete]
func (h *Handlers) DeleteDish(c *gin.Context) {
	id, valid := dishID(c)
	if !valid {
		return
	}
	if err := h.dishes.Delete(c.Request.Context(), userID(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// SearchDishes godoc
// @ID          searchDishes
// @Summary     Keyword search
// @Description Case-insensitive match on name, English name, country and region among recent dishes.
// @Tags        Dishes
// @Produce     json
// @Param       q      query  string  true   "Keyword"  example(ramen)
// @Param       limit  query  int     false  "Max items" minimum(1) maximum(100)
// @Success     200  {object} handlers.ListDishesResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing query"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Router      /search/dishes [get]
func (h *Handlers) SearchDishes(c *gin.Context) {
	limit, valid := queryLimit(c, 100)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidLimit)
		return
	}
	items, err := h.dishes.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, dishList(items))
}

// ListUserDishes godoc
// @ID          listUserDishes
// @Summary     Dishes contributed by a user
// @Tags        Dishes
// @Produce     json
// @Param       id     path   string  true   "User ID"
// @Param       limit  query  int     false  "Max items"  minimum(1) maximum(100)
// @Success     200  {object} handlers.ListDishesResponse
// @Router      /users/{id}/dishes [get]
func (h *Handlers) ListUserDishes(c *gin.Context) {
	limit, valid := queryLimit(c, 100)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidLimit)
		return
	}
	items, err := h.dishes.ByAuthor(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, dishList(items))
}
