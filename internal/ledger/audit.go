package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/championship-league/internal/models"
	"github.com/trentd187/championship-league/internal/pubsub"
	"github.com/trentd187/championship-league/internal/store"
)

// Entity names used in a Mismatch.
const (
	EntityMatch  = "match"
	EntityPlayer = "player"
)

// Mismatch is one stored counter that differs from what the events say it should be.
type Mismatch struct {
	Entity   string    `json:"entity"`
	ID       uuid.UUID `json:"id"`
	Field    string    `json:"field"`
	Stored   int       `json:"stored"`
	Expected int       `json:"expected"`
}

// Report is the result of Audit or Rebuild.
type Report struct {
	ChampionshipID uuid.UUID  `json:"championship_id"`
	MatchesChecked int        `json:"matches_checked"`
	PlayersChecked int        `json:"players_checked"`
	Mismatches     []Mismatch `json:"mismatches"`
	Repaired       bool       `json:"repaired"`
}

// Consistent reports whether no drift was found.
func (r *Report) Consistent() bool {
	return len(r.Mismatches) == 0
}

type score struct{ a, b int }
type totals struct{ goals, assists int }

// expected holds the recomputed derived state, keyed by id.
type expected struct {
	scores  map[uuid.UUID]score
	players map[uuid.UUID]totals
}

// fold recomputes match scores from matchEvents and player totals from playerEvents.
// A goal counts for score_a when credited to time_a and for score_b otherwise.
func fold(matches []models.Match, matchEvents []models.MatchEvent, players []models.Player, playerEvents []models.MatchEvent) expected {
	exp := expected{
		scores:  make(map[uuid.UUID]score, len(matches)),
		players: make(map[uuid.UUID]totals, len(players)),
	}

	byID := make(map[uuid.UUID]*models.Match, len(matches))
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
		exp.scores[matches[i].ID] = score{}
	}
	for _, e := range matchEvents {
		m := byID[e.MatchID]
		if m == nil || e.Kind != models.EventKindGoal {
			continue
		}
		s := exp.scores[m.ID]
		if sideOf(m, e.TeamID) == store.SideA {
			s.a++
		} else {
			s.b++
		}
		exp.scores[m.ID] = s
	}

	for _, p := range players {
		exp.players[p.ID] = totals{}
	}
	for _, e := range playerEvents {
		t, ok := exp.players[e.PlayerID]
		if !ok {
			continue
		}
		switch e.Kind {
		case models.EventKindGoal:
			t.goals++
		case models.EventKindAssist:
			t.assists++
		}
		exp.players[e.PlayerID] = t
	}
	return exp
}

// compare lists every stored value that differs from exp, in a stable order.
func compare(matches []models.Match, players []models.Player, exp expected) []Mismatch {
	out := []Mismatch{}
	for _, m := range matches {
		want := exp.scores[m.ID]
		if m.ScoreA != want.a {
			out = append(out, Mismatch{Entity: EntityMatch, ID: m.ID, Field: "score_a", Stored: m.ScoreA, Expected: want.a})
		}
		if m.ScoreB != want.b {
			out = append(out, Mismatch{Entity: EntityMatch, ID: m.ID, Field: "score_b", Stored: m.ScoreB, Expected: want.b})
		}
	}
	for _, p := range players {
		want := exp.players[p.ID]
		if p.TotalGoals != want.goals {
			out = append(out, Mismatch{Entity: EntityPlayer, ID: p.ID, Field: "total_gols", Stored: p.TotalGoals, Expected: want.goals})
		}
		if p.TotalAssists != want.assists {
			out = append(out, Mismatch{Entity: EntityPlayer, ID: p.ID, Field: "total_assists", Stored: p.TotalAssists, Expected: want.assists})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// scan loads the championship's derived state and its events and compares them.
func scan(ctx context.Context, s *store.Store, championshipID uuid.UUID) (*Report, []models.Match, []models.Player, expected, error) {
	if _, err := s.GetChampionship(ctx, championshipID); err != nil {
		return nil, nil, nil, expected{}, err
	}

	matches, err := s.ListMatches(ctx, championshipID)
	if err != nil {
		return nil, nil, nil, expected{}, err
	}
	matchEvents, err := s.ListEventsByChampionship(ctx, championshipID)
	if err != nil {
		return nil, nil, nil, expected{}, err
	}

	// Players of the championship's teams plus anyone credited in its matches, since a
	// player may have changed team after scoring.
	players, err := s.ListPlayersByChampionship(ctx, championshipID)
	if err != nil {
		return nil, nil, nil, expected{}, err
	}
	seen := make(map[uuid.UUID]bool, len(players))
	for _, p := range players {
		seen[p.ID] = true
	}
	var extra []uuid.UUID
	for _, e := range matchEvents {
		if !seen[e.PlayerID] {
			seen[e.PlayerID] = true
			extra = append(extra, e.PlayerID)
		}
	}
	more, err := s.ListPlayersByIDs(ctx, extra)
	if err != nil {
		return nil, nil, nil, expected{}, err
	}
	players = append(players, more...)

	ids := make([]uuid.UUID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	playerEvents, err := s.ListEventsByPlayers(ctx, ids)
	if err != nil {
		return nil, nil, nil, expected{}, err
	}

	exp := fold(matches, matchEvents, players, playerEvents)
	report := &Report{
		ChampionshipID: championshipID,
		MatchesChecked: len(matches),
		PlayersChecked: len(players),
		Mismatches:     compare(matches, players, exp),
	}
	return report, matches, players, exp, nil
}

// Audit recomputes every score and player total of the championship from its events and
// reports the stored values that disagree. Nothing is written.
func (l *Ledger) Audit(ctx context.Context, championshipID uuid.UUID) (*Report, error) {
	report, _, _, _, err := scan(ctx, l.store, championshipID)
	if err != nil {
		return nil, fmt.Errorf("audit championship %s: %w", championshipID, err)
	}
	if !report.Consistent() {
		log.Warn().
			Str("championship_id", championshipID.String()).
			Int("mismatches", len(report.Mismatches)).
			Msg("ledger: audit found counter drift")
	}
	return report, nil
}

// Rebuild overwrites every drifted score and player total of the championship with the value
// recomputed from its events, in one transaction. The returned report lists what changed.
func (l *Ledger) Rebuild(ctx context.Context, championshipID uuid.UUID) (*Report, error) {
	var report *Report
	err := l.store.WithTx(ctx, func(tx *store.Store) error {
		r, matches, players, exp, err := scan(ctx, tx, championshipID)
		if err != nil {
			return err
		}

		drifted := make(map[uuid.UUID]bool, len(r.Mismatches))
		for _, mm := range r.Mismatches {
			drifted[mm.ID] = true
		}
		for _, m := range matches {
			if !drifted[m.ID] {
				continue
			}
			s := exp.scores[m.ID]
			if err := tx.SetScores(ctx, m.ID, s.a, s.b); err != nil {
				return err
			}
		}
		for _, p := range players {
			if !drifted[p.ID] {
				continue
			}
			t := exp.players[p.ID]
			if err := tx.SetPlayerCounters(ctx, p.ID, t.goals, t.assists); err != nil {
				return err
			}
		}

		r.Repaired = true
		report = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild championship %s: %w", championshipID, err)
	}

	log.Info().
		Str("championship_id", championshipID.String()).
		Int("repaired", len(report.Mismatches)).
		Msg("ledger: rebuilt derived counters")

	l.pub.Publish(pubsub.Event{
		Type:           pubsub.TypeLedgerRebuilt,
		ChampionshipID: championshipID,
		Payload:        report,
		At:             l.clock.Now().UTC(),
	})
	return report, nil
}
