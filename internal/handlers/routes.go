package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/championship-league/internal/config"
	"github.com/trentd187/championship-league/internal/ledger"
	"github.com/trentd187/championship-league/internal/middleware"
	"github.com/trentd187/championship-league/internal/pubsub"
	"github.com/trentd187/championship-league/internal/store"
	"github.com/trentd187/championship-league/internal/websocket"
)

// Deps bundles what the route handlers need.
type Deps struct {
	Config    *config.Config
	Store     *store.Store
	Ledger    *ledger.Ledger
	Publisher pubsub.Publisher
	Hub       *websocket.Hub
}

// Register mounts every route on app.
func Register(app *fiber.App, d Deps) {
	st, l, pub := d.Store, d.Ledger, d.Publisher

	// --- Public routes (no auth required) ---
	app.Get("/health", HealthCheck)
	app.Get("/health/ready", Readiness(st))

	// --- Authenticated API routes ---
	// Every route under /api/v1 requires a valid bearer token. Auth also syncs the user row.
	api := app.Group("/api/v1", middleware.Auth(d.Config, st))

	// Championships
	api.Get("/championships", ListChampionships(st))
	api.Post("/championships", CreateChampionship(st))
	api.Get("/championships/:id", GetChampionship(st))
	api.Patch("/championships/:id", UpdateChampionship(st))
	api.Delete("/championships/:id", DeleteChampionship(st))
	api.Post("/championships/:id/finalize", FinalizeChampionship(st, pub))
	api.Post("/championships/:id/reset", ResetChampionship(st, pub))
	api.Get("/championships/:id/standings", GetStandings(st))
	api.Get("/championships/:id/stats", GetStats(st, d.Config.TopListLimit))
	api.Get("/championships/:id/audit", AuditChampionship(st, l))
	api.Post("/championships/:id/rebuild", RebuildChampionship(st, l))

	// Teams
	api.Get("/championships/:id/teams", ListTeams(st))
	api.Post("/championships/:id/teams", CreateTeam(st))
	api.Patch("/teams/:id", UpdateTeam(st))
	api.Delete("/teams/:id", DeleteTeam(st))

	// Players
	api.Get("/teams/:id/players", ListTeamPlayers(st))
	api.Post("/teams/:id/players", CreatePlayer(st))
	api.Get("/championships/:id/players", ListChampionshipPlayers(st))
	api.Patch("/players/:id", UpdatePlayer(st))
	api.Delete("/players/:id", DeletePlayer(st))

	// Matches
	api.Get("/championships/:id/matches", ListMatches(st))
	api.Post("/championships/:id/matches", CreateMatch(st, pub))
	api.Get("/matches/:id", GetMatch(st))
	api.Patch("/matches/:id", UpdateMatch(st))
	api.Delete("/matches/:id", DeleteMatch(st))
	api.Post("/matches/:id/finalize", FinalizeMatch(st, pub))

	// Events
	api.Get("/matches/:id/events", ListMatchEvents(st))
	api.Post("/matches/:id/events", CreateMatchEvent(st, l))
	api.Delete("/events/:id", DeleteMatchEvent(st, l))

	// Live feed
	if d.Hub != nil {
		api.Get("/matches/:id/live", LiveAccess(st), websocket.RequireUpgrade(), websocket.Serve(d.Hub))
	}

	// Admin-only
	admin := api.Group("/admin", middleware.RequireRole("admin"))
	admin.Post("/championships/:id/rebuild", RebuildChampionship(st, l))
}
