package standings

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trentd187/championship-league/internal/models"
)

// Leader is one row of the top scorers or top assists ranking.
type Leader struct {
	Player  models.Player `json:"player"`
	Team    *models.Team  `json:"team"`
	Goals   int           `json:"gols"`
	Assists int           `json:"assists"`
}

// TopScorers ranks players with at least one goal, most goals first.
func TopScorers(players []models.Player, teams []models.Team, limit int) []Leader {
	return rank(players, teams, limit, func(p models.Player) int { return p.TotalGoals })
}

// TopAssists ranks players with at least one assist, most assists first.
func TopAssists(players []models.Player, teams []models.Team, limit int) []Leader {
	return rank(players, teams, limit, func(p models.Player) int { return p.TotalAssists })
}

func rank(players []models.Player, teams []models.Team, limit int, value func(models.Player) int) []Leader {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	byID := make(map[uuid.UUID]models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}

	out := make([]Leader, 0, len(players))
	for _, p := range players {
		if value(p) <= 0 {
			continue
		}
		l := Leader{Player: p, Goals: p.TotalGoals, Assists: p.TotalAssists}
		if p.TeamID != nil {
			if t, ok := byID[*p.TeamID]; ok {
				l.Team = &t
			}
		}
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := value(out[i].Player), value(out[j].Player)
		if vi != vj {
			return vi > vj
		}
		if out[i].Player.Name != out[j].Player.Name {
			return out[i].Player.Name < out[j].Player.Name
		}
		return out[i].Player.ID.String() < out[j].Player.ID.String()
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
