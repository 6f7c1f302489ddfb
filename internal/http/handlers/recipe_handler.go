// Recipe HTTP handlers.
//
//   - POST /recipes/generate   (AI recipe for a selection, Idempotency-Key)
//   - GET  /me/recipes         (saved recipes, paginated, ETag)
//   - GET  /recipes/{id}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/recipe-roulette/internal/domain"
	"github.com/tbourn/recipe-roulette/internal/http/middleware"
	"github.com/tbourn/recipe-roulette/internal/services"
)

// ListRecipesResponse wraps a page of saved recipes.
type ListRecipesResponse struct {
	Recipes    []domain.Recipe `json:"recipes"`
	Pagination Pagination      `json:"pagination"`
}

// GenerateRecipe godoc
// @ID          generateRecipe
// @Summary     Generate a recipe
// @Description Generates a recipe for a country, staple food and main dish, or for the selection of a completed roulette session, and saves it for the caller. The bearer token is verified and generation is limited per user.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Deduplicates retries"
// @Param       body             body    services.GenerateInput  true  "Selection"
//
// @Success     201  {object} services.GeneratedRecipe
// @Success     200  {object} services.GeneratedRecipe "Replayed"
// @Failure     400  {object} handlers.ErrorResponse "Missing required fields"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     422  {object} handlers.ErrorResponse "No recipe generated"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     502  {object} handlers.ErrorResponse "Upstream error"
// @Failure     504  {object} handlers.ErrorResponse "Upstream timeout"
// @Router      /recipes/generate [post]
func (h *Handlers) GenerateRecipe(c *gin.Context) {
	var in services.GenerateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)
	token := c.GetString(middleware.TokenKey)

	rec, replay, err := h.recipes.Generate(c.Request.Context(), token, userID(c), key, in)
	if err != nil {
		failErr(c, err)
		return
	}
	if replay {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, rec)
		return
	}
	ok(c, http.StatusCreated, rec)
}

// ListRecipes godoc
// @ID          listRecipes
// @Summary     Saved recipes (paginated)
// @Tags        Recipes
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListRecipesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Router      /me/recipes [get]
func (h *Handlers) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	if count, latest, err := h.recipes.Stats(ctx, uid); err == nil {
		if notModified(c, "recipes:"+uid, count, latest) {
			return
		}
	}

	items, total, err := h.recipes.List(ctx, uid, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Recipe{}
	}
	ok(c, http.StatusOK, ListRecipesResponse{Recipes: items, Pagination: pagination(page, pageSize, total)})
}

// GetRecipe godoc
// @ID          getRecipe
// @Summary     A saved recipe
// @Tags        Recipes
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string  true  "Recipe ID"
// @Success     200  {object} domain.Recipe
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id} [get]
func (h *Handlers) GetRecipe(c *gin.Context) {
	r, err := h.recipes.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}
