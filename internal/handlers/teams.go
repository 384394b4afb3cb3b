package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/championship-league/internal/models"
	"github.com/trentd187/championship-league/internal/store"
)

// TeamRequest is the JSON body for POST /championships/:id/teams and PATCH /teams/:id.
// On PATCH, omitted fields are left unchanged; send color_b as "" to clear it.
type TeamRequest struct {
	Name   *string `json:"nome"`
	ColorA *string `json:"color_a"`
	ColorB *string `json:"color_b"`
}

// apply copies the request onto team, validating as it goes. It returns a message for the
// client when something is wrong.
func (r TeamRequest) apply(team *models.Team) string {
	if r.Name != nil {
		team.Name = strings.TrimSpace(*r.Name)
	}
	if r.ColorA != nil {
		team.ColorA = *r.ColorA
	}
	if r.ColorB != nil {
		if *r.ColorB == "" {
			team.ColorB = nil
		} else {
			b := *r.ColorB
			team.ColorB = &b
		}
	}

	if team.Name == "" {
		return "nome is required"
	}
	if !models.ValidColor(team.ColorA) {
		return "color_a must be a #RRGGBB color"
	}
	if team.ColorB != nil && !models.ValidColor(*team.ColorB) {
		return "color_b must be a #RRGGBB color"
	}
	return ""
}

// ListTeams handles GET /api/v1/championships/:id/teams.
func ListTeams(st *store.Store) fiber.Handler {
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
		return c.JSON(teams)
	}
}

// CreateTeam handles POST /api/v1/championships/:id/teams.
func CreateTeam(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := writableChampionship(c, st, id); err != nil {
			return respondError(c, err)
		}

		var req TeamRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		team := &models.Team{ChampionshipID: id}
		if msg := req.apply(team); msg != "" {
			return badRequest(c, msg)
		}

		if err := st.CreateTeam(c.UserContext(), team); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(team)
	}
}

// UpdateTeam handles PATCH /api/v1/teams/:id.
func UpdateTeam(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		team, champ, err := teamFor(c, st, id)
		if err != nil {
			return respondError(c, err)
		}
		if champ.IsFinalized() {
			return respondError(c, errFinalized)
		}

		var req TeamRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if msg := req.apply(team); msg != "" {
			return badRequest(c, msg)
		}

		if err := st.UpdateTeam(c.UserContext(), team); err != nil {
			return respondError(c, err)
		}
		return c.JSON(team)
	}
}

// DeleteTeam handles DELETE /api/v1/teams/:id.
// The team's players and every match it plays in go with it, together with their events.
func DeleteTeam(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		_, champ, err := teamFor(c, st, id)
		if err != nil {
			return respondError(c, err)
		}
		if champ.IsFinalized() {
			return respondError(c, errFinalized)
		}
		if err := st.DeleteTeamCascade(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
