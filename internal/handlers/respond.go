// Package handlers contains the HTTP route handler functions for the Championship League API.
// Each handler corresponds to one API endpoint and is responsible for reading the request,
// checking the caller may act on the resource, calling the store or the ledger, and writing
// the response.
//
// Every exported function follows the "handler factory" pattern: it takes its dependencies
// (the *store.Store, the *ledger.Ledger, a publisher) and returns a fiber.Handler, so nothing
// is kept in package-level variables.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/championship-league/internal/ledger"
	"github.com/trentd187/championship-league/internal/store"
)

var (
	// errForbidden is returned by access checks when the caller is neither owner nor admin.
	errForbidden = errors.New("forbidden")
	// errFinalized is returned when a write targets a finalized championship.
	errFinalized = errors.New("championship is finalized")
)

// respondError maps an error to its HTTP status and writes {"error": "..."}.
//
//	validation    → 400
//	forbidden     → 403
//	not found     → 404
//	invalid state → 409
//	anything else → 500 (logged, message hidden)
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, errForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalidState), errors.Is(err, errFinalized):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

// badRequest writes a 400 with the given message.
func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// paramID parses a UUID route parameter; ok is false when a 400 has already been written.
func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
