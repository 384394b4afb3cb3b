package handlers

// events.go: goals and assists recorded against a match. Every write goes through the
// ledger, which keeps the match score and the players' totals in step with the events.

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/championship-league/internal/ledger"
	"github.com/trentd187/championship-league/internal/models"
	"github.com/trentd187/championship-league/internal/store"
)

// CreateEventRequest is the JSON body for POST /matches/:id/events.
type CreateEventRequest struct {
	PlayerID string `json:"player_id"`
	TeamID   string `json:"team_id"`
	Kind     string `json:"event_type"` // "gol" or "assist"
	Minute   *int   `json:"minute"`
}

// ListMatchEvents handles GET /api/v1/matches/:id/events in the order they were recorded.
func ListMatchEvents(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, _, err := matchFor(c, st, id); err != nil {
			return respondError(c, err)
		}
		events, err := st.ListEventsByMatch(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(events)
	}
}

// CreateMatchEvent handles POST /api/v1/matches/:id/events.
// When team_id is omitted the event is credited to the player's team.
func CreateMatchEvent(st *store.Store, l *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		matchID, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, _, err := matchFor(c, st, matchID); err != nil {
			return respondError(c, err)
		}

		var req CreateEventRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		playerID, err := uuid.Parse(req.PlayerID)
		if err != nil {
			return badRequest(c, "player_id is required")
		}

		var teamID uuid.UUID
		if req.TeamID != "" {
			if teamID, err = uuid.Parse(req.TeamID); err != nil {
				return badRequest(c, "invalid team_id")
			}
		} else {
			p, err := st.GetPlayer(c.UserContext(), playerID)
			if err != nil {
				return respondError(c, err)
			}
			if p.TeamID == nil {
				return badRequest(c, "team_id is required for a player without a team")
			}
			teamID = *p.TeamID
		}

		event, err := l.Apply(c.UserContext(), ledger.Input{
			MatchID:  matchID,
			PlayerID: playerID,
			TeamID:   teamID,
			Kind:     models.EventKind(req.Kind),
			Minute:   req.Minute,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(event)
	}
}

// DeleteMatchEvent handles DELETE /api/v1/events/:id, retracting the event.
func DeleteMatchEvent(st *store.Store, l *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := eventFor(c, st, id); err != nil {
			return respondError(c, err)
		}
		if err := l.Retract(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
