package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/championship-league/internal/store"
)

// HealthCheck handles GET /health.
// It returns a simple JSON response indicating the server is alive. No database queries,
// no authentication: it's what container liveness probes and load balancers hit.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /health/ready. Unlike HealthCheck it pings the database, so an
// instance that lost its connection stops receiving traffic.
func Readiness(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := st.Ping(c.UserContext()); err != nil {
			log.Warn().Err(err).Msg("readiness check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
