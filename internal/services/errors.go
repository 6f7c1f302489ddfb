// Package services defines the business logic for dishes, likes, user
// profiles and saved recipes. This file centralizes the service-level error
// values so that they can be returned consistently and checked by callers.
//
// Every value is an *apperr.Error, so handlers translate them to HTTP status
// codes and localized messages without a per-endpoint switch. Compare with
// errors.Is; the values are never mutated.
package services

import "github.com/tbourn/recipe-roulette/internal/apperr"

// Lookup errors.
var (
	ErrDishNotFound   = apperr.NotFound("dish not found")
	ErrUserNotFound   = apperr.NotFound("user not found")
	ErrRecipeNotFound = apperr.NotFound("recipe not found")
)

// Ownership and uniqueness.
var (
	// ErrNotAuthor is returned when someone other than the author edits or
	// deletes a dish.
	ErrNotAuthor = apperr.Forbidden("only the author can modify this dish")

	// ErrDishExists reports a second dish with the same name in one country.
	ErrDishExists = apperr.Conflict("dish already exists for this country", 0)

	// ErrProfileExists reports a second registration for the same account or email.
	ErrProfileExists = apperr.Conflict("profile already exists", 0)
)

// Validation errors. Messages are surfaced to clients verbatim.
var (
	ErrNameRequired        = apperr.Validation("name is required")
	ErrCountryRequired     = apperr.Validation("country is required")
	ErrInvalidRegion       = apperr.Validation("invalid region")
	ErrInvalidCategory     = apperr.Validation("invalid category")
	ErrInvalidSort         = apperr.Validation("sort must be popular or recent")
	ErrQueryRequired       = apperr.Validation("search query is required")
	ErrDisplayNameRequired = apperr.Validation("display name is required")
	ErrEmailRequired       = apperr.Validation("email is required")
	ErrTooLong             = apperr.Validation("field too long")
	ErrNothingToUpdate     = apperr.Validation("no fields to update")
)
