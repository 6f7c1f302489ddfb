// Roulette HTTP handlers.
//
//   - GET  /roulette/countries
//   - POST /roulette/sessions
//   - GET  /roulette/sessions/{id}
//   - POST /roulette/sessions/{id}/spin
//   - POST /roulette/sessions/{id}/reset
//
// Sessions are anonymous and addressed by their id.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NewSessionRequest optionally restricts the country pool to a region.
type NewSessionRequest struct {
	Region string `json:"region" example:"Asia"`
}

// CountriesResponse lists the countries the first stage draws from.
type CountriesResponse struct {
	Region    string   `json:"region,omitempty" example:"Asia"`
	Countries []string `json:"countries"`
}

// ListCountries godoc
// @ID          listCountries
// @Summary     Country pool
// @Tags        Roulette
// @Produce     json
// @Param       region  query  string  false  "Region"  Enums(Asia, Europe, North America, South America, Africa, Middle East, Oceania, Others)
// @Success     200  {object} handlers.CountriesResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid region"
// @Failure     503  {object} handlers.ErrorResponse "Pool unavailable"
// @Router      /roulette/countries [get]
func (h *Handlers) ListCountries(c *gin.Context) {
	region := strings.TrimSpace(c.Query("region"))
	list, err := h.roulette.Countries(c.Request.Context(), region)
	if err != nil {
		failErr(c, err)
		return
	}
	if list == nil {
		list = []string{}
	}
	ok(c, http.StatusOK, CountriesResponse{Region: region, Countries: list})
}

// StartSession godoc
// @ID          startSession
// @Summary     Start a roulette
// @Description Creates a session at the country stage. The body is optional.
// @Tags        Roulette
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.NewSessionRequest  false  "Options"
// @Success     201  {object} roulette.Snapshot
// @Failure     400  {object} handlers.ErrorResponse "Invalid region"
// @Router      /roulette/sessions [post]
func (h *Handlers) StartSession(c *gin.Context) {
	var req NewSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
		return
	}
	snap, err := h.roulette.NewSession(strings.TrimSpace(req.Region))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, snap)
}

// GetSession godoc
// @ID          getSession
// @Summary     Roulette state
// @Tags        Roulette
// @Produce     json
// @Param       id   path  string  true  "Session ID"
// @Success     200  {object} roulette.Snapshot
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /roulette/sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	snap, err := h.roulette.Get(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, snap)
}

// Spin godoc
// @ID          spin
// @Summary     Spin the current stage
// @Description Draws a value for the current stage (country, staple food, main dish) avoiding recent repeats, and advances. Re-spins during the reel animation are rejected with Retry-After.
// @Tags        Roulette
// @Produce     json
// @Param       id   path  string  true  "Session ID"
// @Success     200  {object} roulette.SpinResult
// @Failure     400  {object} handlers.ErrorResponse "Roulette already complete"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     409  {object} handlers.ErrorResponse "Spin in progress"
// @Failure     422  {object} handlers.ErrorResponse "No dishes for this stage"
// @Failure     503  {object} handlers.ErrorResponse "Pool unavailable"
// @Router      /roulette/sessions/{id}/spin [post]
func (h *Handlers) Spin(c *gin.Context) {
	res, err := h.roulette.Spin(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// ResetSession godoc
// @ID          resetSession
// @Summary     Reset a roulette
// @Description Returns to the country stage and clears the selection. Draw history is kept.
// @Tags        Roulette
// @Produce     json
// @Param       id   path  string  true  "Session ID"
// @Success     200  {object} roulette.Snapshot
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /roulette/sessions/{id}/reset [post]
func (h *Handlers) ResetSession(c *gin.Context) {
	snap, err := h.roulette.Reset(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, snap)
}
