package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/championship-league/internal/models"
	"github.com/trentd187/championship-league/internal/pubsub"
	"github.com/trentd187/championship-league/internal/store"
)

// defaultPhase is used when a match is created without a "type".
const defaultPhase = "grupo"

// CreateMatchRequest is the JSON body for POST /championships/:id/matches.
type CreateMatchRequest struct {
	TeamAID       string `json:"time_a"`
	TeamBID       string `json:"time_b"`
	Phase         string `json:"type"`
	ScheduledDate string `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string `json:"scheduled_time"` // HH:MM or HH:MM:SS
}

// UpdateMatchRequest is the JSON body for PATCH /matches/:id. Teams, scores and the
// finalized flag cannot be changed this way.
type UpdateMatchRequest struct {
	Phase         *string `json:"type"`
	ScheduledDate *string `json:"scheduled_date"`
	ScheduledTime *string `json:"scheduled_time"`
}

// normalizeDate checks a YYYY-MM-DD date.
func normalizeDate(s string) (string, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// normalizeTime accepts HH:MM or HH:MM:SS and always returns HH:MM:SS.
func normalizeTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}

// ListMatches handles GET /api/v1/championships/:id/matches in schedule order.
func ListMatches(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		if _, err := championshipFor(c, st, id); err != nil {
			return respondError(c, err)
		}
		matches, err := st.ListMatches(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(matches)
	}
}

// CreateMatch handles POST /api/v1/championships/:id/matches.
// Both teams must be different and belong to the championship. Scheduling a match on a
// reset championship makes it active again.
func CreateMatch(st *store.Store, pub pubsub.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		champ, err := writableChampionship(c, st, id)
		if err != nil {
			return respondError(c, err)
		}

		var req CreateMatchRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		teamA, errA := uuid.Parse(req.TeamAID)
		teamB, errB := uuid.Parse(req.TeamBID)
		if errA != nil || errB != nil {
			return badRequest(c, "time_a and time_b are required")
		}
		if teamA == teamB {
			return badRequest(c, "a team cannot play against itself")
		}
		for _, teamID := range []uuid.UUID{teamA, teamB} {
			team, err := st.GetTeam(c.UserContext(), teamID)
			if err != nil {
				return respondError(c, err)
			}
			if team.ChampionshipID != id {
				return badRequest(c, "both teams must belong to this championship")
			}
		}

		date, ok := normalizeDate(req.ScheduledDate)
		if !ok {
			return badRequest(c, "scheduled_date must be YYYY-MM-DD")
		}
		clock, ok := normalizeTime(req.ScheduledTime)
		if !ok {
			return badRequest(c, "scheduled_time must be HH:MM or HH:MM:SS")
		}
		phase := strings.TrimSpace(req.Phase)
		if phase == "" {
			phase = defaultPhase
		}

		m := &models.Match{
			ChampionshipID: id,
			TeamAID:        teamA,
			TeamBID:        teamB,
			Phase:          phase,
			ScheduledDate:  date,
			ScheduledTime:  clock,
		}
		if err := st.CreateMatch(c.UserContext(), m); err != nil {
			return respondError(c, err)
		}
		if champ.Status == models.ChampionshipStatusReset {
			if err := st.MarkChampionshipActive(c.UserContext(), id); err != nil {
				return respondError(c, err)
			}
		}

		pub.Publish(pubsub.Event{
			Type:           pubsub.TypeMatchCreated,
			ChampionshipID: id,
			MatchID:        &m.ID,
			Payload:        m,
			At:             time.Now().UTC(),
		})
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// GetMatch handles GET /api/v1/matches/:id.
func GetMatch(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		m, _, err := matchFor(c, st, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(m)
	}
}

// UpdateMatch handles PATCH /api/v1/matches/:id (phase and schedule only).
func UpdateMatch(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		m, champ, err := matchFor(c, st, id)
		if err != nil {
			return respondError(c, err)
		}
		if champ.IsFinalized() {
			return respondError(c, errFinalized)
		}
		if m.Finalized {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "match is finalized"})
		}

		var req UpdateMatchRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.Phase != nil {
			if phase := strings.TrimSpace(*req.Phase); phase != "" {
				m.Phase = phase
			}
		}
		if req.ScheduledDate != nil {
			date, ok := normalizeDate(*req.ScheduledDate)
			if !ok {
				return badRequest(c, "scheduled_date must be YYYY-MM-DD")
			}
			m.ScheduledDate = date
		}
		if req.ScheduledTime != nil {
			clock, ok := normalizeTime(*req.ScheduledTime)
			if !ok {
				return badRequest(c, "scheduled_time must be HH:MM or HH:MM:SS")
			}
			m.ScheduledTime = clock
		}

		if err := st.UpdateMatchSchedule(c.UserContext(), m); err != nil {
			return respondError(c, err)
		}
		return c.JSON(m)
	}
}

// FinalizeMatch handles POST /api/v1/matches/:id/finalize. After this the match counts in
// the standings and its events can no longer change.
func FinalizeMatch(st *store.Store, pub pubsub.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		_, champ, err := matchFor(c, st, id)
		if err != nil {
			return respondError(c, err)
		}
		if champ.IsFinalized() {
			return respondError(c, errFinalized)
		}

		m, err := st.FinalizeMatch(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}

		pub.Publish(pubsub.Event{
			Type:           pubsub.TypeMatchFinalized,
			ChampionshipID: m.ChampionshipID,
			MatchID:        &m.ID,
			Payload:        m,
			At:             time.Now().UTC(),
		})
		return c.JSON(m)
	}
}

// DeleteMatch handles DELETE /api/v1/matches/:id. Its events are deleted and the scorers'
// totals recounted.
func DeleteMatch(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return nil
		}
		m, champ, err := matchFor(c, st, id)
		if err != nil {
			return respondError(c, err)
		}
		if champ.IsFinalized() {
			return respondError(c, errFinalized)
		}
		// Deleting a finalized match would rewrite the table and the scorers' totals.
		if m.Finalized {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "match is finalized"})
		}
		if err := st.DeleteMatch(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
