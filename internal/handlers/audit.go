package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/championship-league/internal/ledger"
	"github.com/trentd187/championship-league/internal/store"
)

// AuditChampionship handles GET /api/v1/championships/:id/audit: it recomputes every score
// and player total from the events and lists the stored values that disagree.
func AuditChampionship(st *store.Store, l *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := championshipFor(c, st, id); err != nil {
			return respondError(c, err)
		}
		report, err := l.Audit(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(report)
	}
}

// RebuildChampionship handles POST /api/v1/championships/:id/rebuild and the admin route
// POST /api/v1/admin/championships/:id/rebuild. Drifted counters are overwritten with the
// values recomputed from the events. Finalized championships can be rebuilt too: repairing
// a cache does not change any recorded event.
func RebuildChampionship(st *store.Store, l *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := championshipFor(c, st, id); err != nil {
			return respondError(c, err)
		}
		report, err := l.Rebuild(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(report)
	}
}
