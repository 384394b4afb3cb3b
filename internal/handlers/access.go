package handlers

// access.go: resource-level permission checks.
//
// Route-level checks (middleware.RequireRole) decide who may call a route at all. The
// checks here decide who may act on one particular championship and everything below it:
//   - "admin" global role → any championship
//   - anyone else         → only championships they own
//
// Teams, players, matches and events are resolved up to their championship first, so one
// rule covers the whole tree.

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/championship-league/internal/middleware"
	"github.com/trentd187/championship-league/internal/models"
	"github.com/trentd187/championship-league/internal/store"
)

// caller is the authenticated identity the Auth middleware put on the request.
type caller struct {
	id    uuid.UUID
	admin bool
}

func callerOf(c *fiber.Ctx) (caller, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return caller{}, fmt.Errorf("%w: no authenticated user", errForbidden)
	}
	return caller{id: id, admin: middleware.IsAdmin(c)}, nil
}

func (u caller) canManage(champ *models.Championship) bool {
	return u.admin || champ.OwnerID == u.id
}

// championshipFor loads the championship and checks the caller may act on it.
func championshipFor(c *fiber.Ctx, st *store.Store, id uuid.UUID) (*models.Championship, error) {
	u, err := callerOf(c)
	if err != nil {
		return nil, err
	}
	champ, err := st.GetChampionship(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !u.canManage(champ) {
		return nil, fmt.Errorf("%w: championship %s", errForbidden, id)
	}
	return champ, nil
}

// writableChampionship is championshipFor plus a refusal when the championship is finalized.
func writableChampionship(c *fiber.Ctx, st *store.Store, id uuid.UUID) (*models.Championship, error) {
	champ, err := championshipFor(c, st, id)
	if err != nil {
		return nil, err
	}
	if champ.IsFinalized() {
		return nil, fmt.Errorf("%w: %s", errFinalized, champ.ID)
	}
	return champ, nil
}

func teamFor(c *fiber.Ctx, st *store.Store, id uuid.UUID) (*models.Team, *models.Championship, error) {
	team, err := st.GetTeam(c.UserContext(), id)
	if err != nil {
		return nil, nil, err
	}
	champ, err := championshipFor(c, st, team.ChampionshipID)
	if err != nil {
		return nil, nil, err
	}
	return team, champ, nil
}

func playerFor(c *fiber.Ctx, st *store.Store, id uuid.UUID) (*models.Player, *models.Championship, error) {
	p, err := st.GetPlayer(c.UserContext(), id)
	if err != nil {
		return nil, nil, err
	}
	if p.TeamID == nil {
		// Without a team there is no owning championship: only admins may touch it.
		u, err := callerOf(c)
		if err != nil {
			return nil, nil, err
		}
		if !u.admin {
			return nil, nil, fmt.Errorf("%w: player %s has no team", errForbidden, id)
		}
		return p, nil, nil
	}
	_, champ, err := teamFor(c, st, *p.TeamID)
	if err != nil {
		return nil, nil, err
	}
	return p, champ, nil
}

func matchFor(c *fiber.Ctx, st *store.Store, id uuid.UUID) (*models.Match, *models.Championship, error) {
	m, err := st.GetMatch(c.UserContext(), id)
	if err != nil {
		return nil, nil, err
	}
	champ, err := championshipFor(c, st, m.ChampionshipID)
	if err != nil {
		return nil, nil, err
	}
	return m, champ, nil
}

func eventFor(c *fiber.Ctx, st *store.Store, id uuid.UUID) (*models.MatchEvent, error) {
	e, err := st.GetEvent(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if _, _, err := matchFor(c, st, e.MatchID); err != nil {
		return nil, err
	}
	return e, nil
}
