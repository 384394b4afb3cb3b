// Package standings builds the league table and the scorer rankings of a championship.
// Everything here is a pure function of the rows passed in: no database, no clock.
package standings

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trentd187/championship-league/internal/models"
)

// Points awarded per result.
const (
	PointsWin  = 3
	PointsDraw = 1
)

// DefaultTopLimit is used by TopScorers and TopAssists when limit <= 0.
const DefaultTopLimit = 10

// Standing is one row of the league table.
type Standing struct {
	Position     int         `json:"posicao"`
	Team         models.Team `json:"team"`
	Played       int         `json:"jogos"`
	Wins         int         `json:"vitorias"`
	Draws        int         `json:"empates"`
	Losses       int         `json:"derrotas"`
	GoalsFor     int         `json:"golsPro"`
	GoalsAgainst int         `json:"golsContra"`
	GoalDiff     int         `json:"saldo"`
	Points       int         `json:"pontos"`
}

// Compute builds the table for the given teams from their finalized matches.
// Matches that are still open, or that reference a team not in teams, are ignored.
// Every team appears exactly once, including teams that have not played yet.
func Compute(teams []models.Team, matches []models.Match) []Standing {
	index := make(map[uuid.UUID]*Standing, len(teams))
	table := make([]*Standing, 0, len(teams))
	for _, t := range teams {
		if _, dup := index[t.ID]; dup {
			continue
		}
		row := &Standing{Team: t}
		index[t.ID] = row
		table = append(table, row)
	}

	for _, m := range matches {
		if !m.Finalized {
			continue
		}
		a, b := index[m.TeamAID], index[m.TeamBID]
		if a == nil || b == nil {
			continue
		}

		a.Played++
		b.Played++
		a.GoalsFor += m.ScoreA
		a.GoalsAgainst += m.ScoreB
		b.GoalsFor += m.ScoreB
		b.GoalsAgainst += m.ScoreA

		switch {
		case m.ScoreA > m.ScoreB:
			a.Wins++
			b.Losses++
			a.Points += PointsWin
		case m.ScoreB > m.ScoreA:
			b.Wins++
			a.Losses++
			b.Points += PointsWin
		default:
			a.Draws++
			b.Draws++
			a.Points += PointsDraw
			b.Points += PointsDraw
		}
	}

	for _, row := range table {
		row.GoalDiff = row.GoalsFor - row.GoalsAgainst
	}

	sort.Slice(table, func(i, j int) bool {
		return less(table[i], table[j])
	})

	out := make([]Standing, len(table))
	for i, row := range table {
		row.Position = i + 1
		out[i] = *row
	}
	return out
}

// less orders by points, goal difference, goals scored, then name and id so that the
// result never depends on input order.
func less(x, y *Standing) bool {
	if x.Points != y.Points {
		return x.Points > y.Points
	}
	if x.GoalDiff != y.GoalDiff {
		return x.GoalDiff > y.GoalDiff
	}
	if x.GoalsFor != y.GoalsFor {
		return x.GoalsFor > y.GoalsFor
	}
	if x.Team.Name != y.Team.Name {
		return x.Team.Name < y.Team.Name
	}
	return x.Team.ID.String() < y.Team.ID.String()
}
