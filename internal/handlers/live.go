package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/championship-league/internal/store"
)

// LiveAccess guards GET /api/v1/matches/:id/live: the match must exist and the caller must
// be allowed to see its championship before the connection is upgraded.
func LiveAccess(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, _, err := matchFor(c, st, id); err != nil {
			return respondError(c, err)
		}
		return c.Next()
	}
}
