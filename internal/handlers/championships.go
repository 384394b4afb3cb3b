package handlers

// championships.go: the /api/v1/championships routes. A championship is the top-level
// container a user owns; teams, players and matches all hang off it.
//
// Lifecycle: active → finalized (champion chosen, everything below becomes read-only).
// Reset clears matches and events from any state; the championship goes back to active
// the next time a match is scheduled.

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/championship-league/internal/pubsub"
	"github.com/trentd187/championship-league/internal/store"
)

// ChampionshipRequest is the JSON body for POST and PATCH /championships.
type ChampionshipRequest struct {
	Name string `json:"nome"`
}

// FinalizeRequest is the JSON body for POST /championships/:id/finalize.
type FinalizeRequest struct {
	ChampionID string `json:"champion_id"`
}

// ListChampionships handles GET /api/v1/championships.
// Admins see every championship; everyone else sees only the ones they own.
func ListChampionships(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := callerOf(c)
		if err != nil {
			return respondError(c, err)
		}
		list, err := st.ListChampionships(c.UserContext(), u.id, u.admin)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}

// CreateChampionship handles POST /api/v1/championships. The caller becomes the owner.
func CreateChampionship(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := callerOf(c)
		if err != nil {
			return respondError(c, err)
		}

		var req ChampionshipRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return badRequest(c, "nome is required")
		}

		champ, err := st.CreateChampionship(c.UserContext(), u.id, name)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(champ)
	}
}

// GetChampionship handles GET /api/v1/championships/:id.
func GetChampionship(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		champ, err := championshipFor(c, st, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(champ)
	}
}

// UpdateChampionship handles PATCH /api/v1/championships/:id. Only the name can change.
func UpdateChampionship(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := championshipFor(c, st, id); err != nil {
			return respondError(c, err)
		}

		var req ChampionshipRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return badRequest(c, "nome is required")
		}

		champ, err := st.RenameChampionship(c.UserContext(), id, name)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(champ)
	}
}

// DeleteChampionship handles DELETE /api/v1/championships/:id, removing everything in it.
func DeleteChampionship(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := championshipFor(c, st, id); err != nil {
			return respondError(c, err)
		}
		if err := st.DeleteChampionship(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// FinalizeChampionship handles POST /api/v1/championships/:id/finalize.
// The champion must be one of the championship's teams.
func FinalizeChampionship(st *store.Store, pub pubsub.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := writableChampionship(c, st, id); err != nil {
			return respondError(c, err)
		}

		var req FinalizeRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		championID, err := uuid.Parse(req.ChampionID)
		if err != nil {
			return badRequest(c, "champion_id is required")
		}
		team, err := st.GetTeam(c.UserContext(), championID)
		if err != nil {
			return respondError(c, err)
		}
		if team.ChampionshipID != id {
			return badRequest(c, "champion must be a team of this championship")
		}

		champ, err := st.FinalizeChampionship(c.UserContext(), id, championID)
		if err != nil {
			return respondError(c, err)
		}

		pub.Publish(pubsub.Event{
			Type:           pubsub.TypeChampionshipFinalized,
			ChampionshipID: id,
			Payload:        champ,
			At:             time.Now().UTC(),
		})
		return c.JSON(champ)
	}
}

// ResetChampionship handles POST /api/v1/championships/:id/reset.
// Matches and events are deleted and every player's totals go back to zero; teams and
// players stay.
func ResetChampionship(st *store.Store, pub pubsub.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := championshipFor(c, st, id); err != nil {
			return respondError(c, err)
		}

		champ, err := st.ResetChampionship(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}

		pub.Publish(pubsub.Event{
			Type:           pubsub.TypeChampionshipReset,
			ChampionshipID: id,
			At:             time.Now().UTC(),
		})
		return c.JSON(champ)
	}
}
