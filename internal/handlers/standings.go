package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/championship-league/internal/standings"
	"github.com/trentd187/championship-league/internal/store"
)

// StatsResponse is returned by GET /championships/:id/stats.
type StatsResponse struct {
	Standings  []standings.Standing `json:"standings"`
	TopScorers []standings.Leader   `json:"top_scorers"`
	TopAssists []standings.Leader   `json:"top_assists"`
}

// GetStandings handles GET /api/v1/championships/:id/standings.
// Only finalized matches count.
func GetStandings(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := championshipFor(c, st, id); err != nil {
			return respondError(c, err)
		}

		teams, err := st.ListTeams(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		matches, err := st.ListMatches(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(standings.Compute(teams, matches))
	}
}

// GetStats handles GET /api/v1/championships/:id/stats: the table plus the top scorers and
// top assists lists. ?limit= overrides the configured list size.
func GetStats(st *store.Store, defaultLimit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := championshipFor(c, st, id); err != nil {
			return respondError(c, err)
		}

		limit := c.QueryInt("limit", defaultLimit)
		if limit <= 0 {
			return badRequest(c, "limit must be positive")
		}

		ctx := c.UserContext()
		teams, err := st.ListTeams(ctx, id)
		if err != nil {
			return respondError(c, err)
		}
		matches, err := st.ListMatches(ctx, id)
		if err != nil {
			return respondError(c, err)
		}
		players, err := st.ListPlayersByChampionship(ctx, id)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(StatsResponse{
			Standings:  standings.Compute(teams, matches),
			TopScorers: standings.TopScorers(players, teams, limit),
			TopAssists: standings.TopAssists(players, teams, limit),
		})
	}
}
