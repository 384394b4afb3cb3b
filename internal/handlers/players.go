package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/championship-league/internal/models"
	"github.com/trentd187/championship-league/internal/store"
)

// PlayerRequest is the JSON body for POST /teams/:id/players and PATCH /players/:id.
// Goal and assist totals are not accepted here: only the ledger changes them.
type PlayerRequest struct {
	Name     *string `json:"nome"`
	Number   *int    `json:"numero"`
	Position *string `json:"posicao"`
	TeamID   *string `json:"team_id"` // PATCH only: move the player to another team of the same championship
}

func (r PlayerRequest) apply(p *models.Player) string {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Number != nil {
		if *r.Number < models.MinJerseyNumber || *r.Number > models.MaxJerseyNumber {
			return fmt.Sprintf("numero must be between %d and %d", models.MinJerseyNumber, models.MaxJerseyNumber)
		}
		n := *r.Number
		p.Number = &n
	}
	if r.Position != nil {
		if pos := strings.TrimSpace(*r.Position); pos == "" {
			p.Position = nil
		} else {
			p.Position = &pos
		}
	}
	if p.Name == "" {
		return "nome is required"
	}
	return ""
}

// ListTeamPlayers handles GET /api/v1/teams/:id/players, ordered by jersey number.
func ListTeamPlayers(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, _, err := teamFor(c, st, id); err != nil {
			return respondError(c, err)
		}
		players, err := st.ListPlayersByTeam(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(players)
	}
}

// ListChampionshipPlayers handles GET /api/v1/championships/:id/players, top scorers first.
func ListChampionshipPlayers(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := championshipFor(c, st, id); err != nil {
			return respondError(c, err)
		}
		players, err := st.ListPlayersByChampionship(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(players)
	}
}

// CreatePlayer handles POST /api/v1/teams/:id/players.
func CreatePlayer(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		teamID, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		_, champ, err := teamFor(c, st, teamID)
		if err != nil {
			return respondError(c, err)
		}
		if champ.IsFinalized() {
			return respondError(c, errFinalized)
		}

		var req PlayerRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		p := &models.Player{TeamID: &teamID}
		if msg := req.apply(p); msg != "" {
			return badRequest(c, msg)
		}

		if err := st.CreatePlayer(c.UserContext(), p); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// UpdatePlayer handles PATCH /api/v1/players/:id.
func UpdatePlayer(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		p, champ, err := playerFor(c, st, id)
		if err != nil {
			return respondError(c, err)
		}
		if champ != nil && champ.IsFinalized() {
			return respondError(c, errFinalized)
		}

		var req PlayerRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if msg := req.apply(p); msg != "" {
			return badRequest(c, msg)
		}

		if req.TeamID != nil {
			teamID, err := uuid.Parse(*req.TeamID)
			if err != nil {
				return badRequest(c, "invalid team_id")
			}
			team, target, err := teamFor(c, st, teamID)
			if err != nil {
				return respondError(c, err)
			}
			if champ != nil && target.ID != champ.ID {
				return badRequest(c, "a player can only move between teams of the same championship")
			}
			if target.IsFinalized() {
				return respondError(c, errFinalized)
			}
			p.TeamID = &team.ID
		}

		if err := st.UpdatePlayer(c.UserContext(), p); err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

// DeletePlayer handles DELETE /api/v1/players/:id.
// The player's events are removed with it and the affected scores recounted. Players with
// events in finalized matches cannot be deleted, since that would rewrite a final score.
func DeletePlayer(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		_, champ, err := playerFor(c, st, id)
		if err != nil {
			return respondError(c, err)
		}
		if champ != nil && champ.IsFinalized() {
			return respondError(c, errFinalized)
		}

		n, err := st.CountFinalizedEventsForPlayer(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		if n > 0 {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": fmt.Sprintf("player has %d events in finalized matches", n),
			})
		}

		if err := st.DeletePlayer(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
