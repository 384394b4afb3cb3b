package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/trentd187/championship-league/internal/database"
	"github.com/trentd187/championship-league/internal/models"
	"github.com/trentd187/championship-league/internal/pubsub"
	"github.com/trentd187/championship-league/internal/store"
)

var kickoff = time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)

// recorder is a Publisher that remembers every event.
type recorder struct {
	mu     sync.Mutex
	events []pubsub.Event
}

func (r *recorder) Publish(e pubsub.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type env struct {
	ctx          context.Context
	store        *store.Store
	ledger       *Ledger
	pub          *recorder
	clock        *clockwork.FakeClock
	championship *models.Championship
	teamA, teamB *models.Team
	playerA      *models.Player
	playerB      *models.Player
	match        *models.Match
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() failed: %v", err)
	}

	ctx := context.Background()
	s := store.New(db)
	e := &env{ctx: ctx, store: s, pub: &recorder{}, clock: clockwork.NewFakeClockAt(kickoff)}
	e.ledger = New(s, e.pub, e.clock)

	owner, err := s.FindOrCreateUser(ctx, "owner", "Owner", "owner@example.com", models.UserRoleUser, false)
	if err != nil {
		t.Fatalf("FindOrCreateUser() failed: %v", err)
	}
	if e.championship, err = s.CreateChampionship(ctx, owner.ID, "Copa"); err != nil {
		t.Fatalf("CreateChampionship() failed: %v", err)
	}

	e.teamA = &models.Team{ChampionshipID: e.championship.ID, Name: "Alpha", ColorA: "#FF0000"}
	e.teamB = &models.Team{ChampionshipID: e.championship.ID, Name: "Bravo", ColorA: "#0000FF"}
	for _, team := range []*models.Team{e.teamA, e.teamB} {
		if err := s.CreateTeam(ctx, team); err != nil {
			t.Fatalf("CreateTeam() failed: %v", err)
		}
	}

	e.playerA = &models.Player{TeamID: &e.teamA.ID, Name: "Ana"}
	e.playerB = &models.Player{TeamID: &e.teamB.ID, Name: "Bia"}
	for _, p := range []*models.Player{e.playerA, e.playerB} {
		if err := s.CreatePlayer(ctx, p); err != nil {
			t.Fatalf("CreatePlayer() failed: %v", err)
		}
	}

	e.match = &models.Match{
		ChampionshipID: e.championship.ID,
		TeamAID:        e.teamA.ID,
		TeamBID:        e.teamB.ID,
		Phase:          "grupo",
		ScheduledDate:  "2026-05-01",
		ScheduledTime:  "15:00:00",
	}
	if err := s.CreateMatch(ctx, e.match); err != nil {
		t.Fatalf("CreateMatch() failed: %v", err)
	}
	return e
}

func (e *env) apply(t *testing.T, p *models.Player, team uuid.UUID, kind models.EventKind) *models.MatchEvent {
	t.Helper()
	ev, err := e.ledger.Apply(e.ctx, Input{MatchID: e.match.ID, PlayerID: p.ID, TeamID: team, Kind: kind})
	if err != nil {
		t.Fatalf("Apply(%s) failed: %v", kind, err)
	}
	return ev
}

func (e *env) score(t *testing.T) (int, int) {
	t.Helper()
	m, err := e.store.GetMatch(e.ctx, e.match.ID)
	if err != nil {
		t.Fatalf("GetMatch() failed: %v", err)
	}
	return m.ScoreA, m.ScoreB
}

func (e *env) totals(t *testing.T, id uuid.UUID) (int, int) {
	t.Helper()
	p, err := e.store.GetPlayer(e.ctx, id)
	if err != nil {
		t.Fatalf("GetPlayer() failed: %v", err)
	}
	return p.TotalGoals, p.TotalAssists
}

func (e *env) assertConsistent(t *testing.T) {
	t.Helper()
	report, err := e.ledger.Audit(e.ctx, e.championship.ID)
	if err != nil {
		t.Fatalf("Audit() failed: %v", err)
	}
	if !report.Consistent() {
		t.Errorf("expected no drift, got %+v", report.Mismatches)
	}
}

func TestApplyThenRetractGoal(t *testing.T) {
	e := newEnv(t)

	ev := e.apply(t, e.playerA, e.teamA.ID, models.EventKindGoal)
	if !ev.CreatedAt.Equal(kickoff) {
		t.Errorf("expected created_at from the ledger clock, got %v", ev.CreatedAt)
	}
	if a, b := e.score(t); a != 1 || b != 0 {
		t.Errorf("expected 1-0, got %d-%d", a, b)
	}
	if goals, _ := e.totals(t, e.playerA.ID); goals != 1 {
		t.Errorf("expected 1 goal, got %d", goals)
	}

	if err := e.ledger.Retract(e.ctx, ev.ID); err != nil {
		t.Fatalf("Retract() failed: %v", err)
	}
	if a, b := e.score(t); a != 0 || b != 0 {
		t.Errorf("expected 0-0, got %d-%d", a, b)
	}
	if goals, _ := e.totals(t, e.playerA.ID); goals != 0 {
		t.Errorf("expected 0 goals, got %d", goals)
	}
	if _, err := e.store.GetEvent(e.ctx, ev.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("event should be gone, got %v", err)
	}

	got := e.pub.types()
	if len(got) != 2 || got[0] != pubsub.TypeEventApplied || got[1] != pubsub.TypeEventRetracted {
		t.Errorf("unexpected notifications: %v", got)
	}
}

func TestApplyCreditsTheRightSide(t *testing.T) {
	e := newEnv(t)

	e.apply(t, e.playerB, e.teamB.ID, models.EventKindGoal)
	e.apply(t, e.playerB, e.teamB.ID, models.EventKindGoal)
	e.apply(t, e.playerA, e.teamA.ID, models.EventKindAssist)

	if a, b := e.score(t); a != 0 || b != 2 {
		t.Errorf("expected 0-2, got %d-%d", a, b)
	}
	if goals, assists := e.totals(t, e.playerA.ID); goals != 0 || assists != 1 {
		t.Errorf("expected Ana 0/1, got %d/%d", goals, assists)
	}
	if goals, assists := e.totals(t, e.playerB.ID); goals != 2 || assists != 0 {
		t.Errorf("expected Bia 2/0, got %d/%d", goals, assists)
	}
	e.assertConsistent(t)
}

func TestApplyRetractSequenceStaysConsistent(t *testing.T) {
	e := newEnv(t)

	var applied []*models.MatchEvent
	for i := 0; i < 6; i++ {
		p, team := e.playerA, e.teamA.ID
		if i%2 == 1 {
			p, team = e.playerB, e.teamB.ID
		}
		kind := models.EventKindGoal
		if i%3 == 2 {
			kind = models.EventKindAssist
		}
		applied = append(applied, e.apply(t, p, team, kind))
		e.clock.Advance(time.Minute)
	}
	e.assertConsistent(t)

	for _, ev := range applied[:3] {
		if err := e.ledger.Retract(e.ctx, ev.ID); err != nil {
			t.Fatalf("Retract() failed: %v", err)
		}
	}
	e.assertConsistent(t)
}

func TestApplyValidation(t *testing.T) {
	e := newEnv(t)
	minute := func(n int) *int { return &n }

	other := &models.Team{ChampionshipID: e.championship.ID, Name: "Charlie", ColorA: "#00FF00"}
	if err := e.store.CreateTeam(e.ctx, other); err != nil {
		t.Fatalf("CreateTeam() failed: %v", err)
	}
	outsider := &models.Player{TeamID: &other.ID, Name: "Caio"}
	if err := e.store.CreatePlayer(e.ctx, outsider); err != nil {
		t.Fatalf("CreatePlayer() failed: %v", err)
	}

	tests := []struct {
		name  string
		input Input
		want  error
	}{
		{"unknown kind", Input{MatchID: e.match.ID, PlayerID: e.playerA.ID, TeamID: e.teamA.ID, Kind: "cartao"}, ErrValidation},
		{"minute too high", Input{MatchID: e.match.ID, PlayerID: e.playerA.ID, TeamID: e.teamA.ID, Kind: models.EventKindGoal, Minute: minute(121)}, ErrValidation},
		{"negative minute", Input{MatchID: e.match.ID, PlayerID: e.playerA.ID, TeamID: e.teamA.ID, Kind: models.EventKindGoal, Minute: minute(-1)}, ErrValidation},
		{"missing ids", Input{Kind: models.EventKindGoal}, ErrValidation},
		{"team not in match", Input{MatchID: e.match.ID, PlayerID: e.playerA.ID, TeamID: other.ID, Kind: models.EventKindGoal}, ErrValidation},
		{"player not in match", Input{MatchID: e.match.ID, PlayerID: outsider.ID, TeamID: e.teamA.ID, Kind: models.EventKindGoal}, ErrValidation},
		{"unknown match", Input{MatchID: uuid.New(), PlayerID: e.playerA.ID, TeamID: e.teamA.ID, Kind: models.EventKindGoal}, ErrNotFound},
		{"unknown player", Input{MatchID: e.match.ID, PlayerID: uuid.New(), TeamID: e.teamA.ID, Kind: models.EventKindGoal}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.ledger.Apply(e.ctx, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if a, b := e.score(t); a != 0 || b != 0 {
		t.Errorf("rejected applies must not change the score, got %d-%d", a, b)
	}
	if len(e.pub.types()) != 0 {
		t.Errorf("rejected applies must not notify, got %v", e.pub.types())
	}

	// Boundary minutes are accepted.
	for _, m := range []int{models.MinMinute, models.MaxMinute} {
		in := Input{MatchID: e.match.ID, PlayerID: e.playerA.ID, TeamID: e.teamA.ID, Kind: models.EventKindAssist, Minute: minute(m)}
		if _, err := e.ledger.Apply(e.ctx, in); err != nil {
			t.Errorf("minute %d should be accepted: %v", m, err)
		}
	}
}

func TestFinalizedMatchIsImmutable(t *testing.T) {
	e := newEnv(t)
	ev := e.apply(t, e.playerA, e.teamA.ID, models.EventKindGoal)

	if _, err := e.store.FinalizeMatch(e.ctx, e.match.ID); err != nil {
		t.Fatalf("FinalizeMatch() failed: %v", err)
	}

	_, err := e.ledger.Apply(e.ctx, Input{MatchID: e.match.ID, PlayerID: e.playerA.ID, TeamID: e.teamA.ID, Kind: models.EventKindGoal})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Apply on finalized match: expected ErrInvalidState, got %v", err)
	}
	if err := e.ledger.Retract(e.ctx, ev.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Retract on finalized match: expected ErrInvalidState, got %v", err)
	}
	if a, _ := e.score(t); a != 1 {
		t.Errorf("score must stay 1, got %d", a)
	}
}

func TestFinalizedChampionshipIsImmutable(t *testing.T) {
	e := newEnv(t)
	ev := e.apply(t, e.playerA, e.teamA.ID, models.EventKindGoal)

	if _, err := e.store.FinalizeChampionship(e.ctx, e.championship.ID, e.teamA.ID); err != nil {
		t.Fatalf("FinalizeChampionship() failed: %v", err)
	}

	_, err := e.ledger.Apply(e.ctx, Input{MatchID: e.match.ID, PlayerID: e.playerB.ID, TeamID: e.teamB.ID, Kind: models.EventKindGoal})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Apply: expected ErrInvalidState, got %v", err)
	}
	if err := e.ledger.Retract(e.ctx, ev.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Retract: expected ErrInvalidState, got %v", err)
	}
}

func TestRetractUnknownEvent(t *testing.T) {
	e := newEnv(t)
	if err := e.ledger.Retract(e.ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRetractClampsAtZero(t *testing.T) {
	e := newEnv(t)
	ev := e.apply(t, e.playerA, e.teamA.ID, models.EventKindGoal)

	// Simulate drift: someone zeroed the counters behind the ledger's back.
	if err := e.store.SetScores(e.ctx, e.match.ID, 0, 0); err != nil {
		t.Fatalf("SetScores() failed: %v", err)
	}
	if err := e.store.SetPlayerCounters(e.ctx, e.playerA.ID, 0, 0); err != nil {
		t.Fatalf("SetPlayerCounters() failed: %v", err)
	}

	if err := e.ledger.Retract(e.ctx, ev.ID); err != nil {
		t.Fatalf("Retract() failed: %v", err)
	}
	if a, b := e.score(t); a != 0 || b != 0 {
		t.Errorf("expected scores floored at 0, got %d-%d", a, b)
	}
	if goals, _ := e.totals(t, e.playerA.ID); goals != 0 {
		t.Errorf("expected goals floored at 0, got %d", goals)
	}
}

func TestRetractAfterPlayerMovedTeams(t *testing.T) {
	e := newEnv(t)
	ev := e.apply(t, e.playerA, e.teamA.ID, models.EventKindGoal)

	e.playerA.TeamID = nil
	if err := e.store.UpdatePlayer(e.ctx, e.playerA); err != nil {
		t.Fatalf("UpdatePlayer() failed: %v", err)
	}

	if err := e.ledger.Retract(e.ctx, ev.ID); err != nil {
		t.Fatalf("Retract() failed: %v", err)
	}
	if a, _ := e.score(t); a != 0 {
		t.Errorf("expected score 0, got %d", a)
	}
	if goals, _ := e.totals(t, e.playerA.ID); goals != 0 {
		t.Errorf("expected goals 0, got %d", goals)
	}
}

func TestAuditDetectsAndRebuildRepairsDrift(t *testing.T) {
	e := newEnv(t)
	e.apply(t, e.playerA, e.teamA.ID, models.EventKindGoal)
	e.apply(t, e.playerB, e.teamB.ID, models.EventKindAssist)
	e.assertConsistent(t)

	if err := e.store.SetScores(e.ctx, e.match.ID, 4, 0); err != nil {
		t.Fatalf("SetScores() failed: %v", err)
	}
	if err := e.store.SetPlayerCounters(e.ctx, e.playerB.ID, 2, 0); err != nil {
		t.Fatalf("SetPlayerCounters() failed: %v", err)
	}

	report, err := e.ledger.Audit(e.ctx, e.championship.ID)
	if err != nil {
		t.Fatalf("Audit() failed: %v", err)
	}
	if len(report.Mismatches) != 3 {
		t.Fatalf("expected 3 mismatches, got %+v", report.Mismatches)
	}
	if report.Repaired {
		t.Error("Audit must not repair")
	}
	if a, _ := e.score(t); a != 4 {
		t.Errorf("Audit must not write, score_a is %d", a)
	}

	rebuilt, err := e.ledger.Rebuild(e.ctx, e.championship.ID)
	if err != nil {
		t.Fatalf("Rebuild() failed: %v", err)
	}
	if !rebuilt.Repaired || len(rebuilt.Mismatches) != 3 {
		t.Errorf("unexpected rebuild report: %+v", rebuilt)
	}

	if a, b := e.score(t); a != 1 || b != 0 {
		t.Errorf("expected 1-0 after rebuild, got %d-%d", a, b)
	}
	if goals, assists := e.totals(t, e.playerB.ID); goals != 0 || assists != 1 {
		t.Errorf("expected Bia 0/1 after rebuild, got %d/%d", goals, assists)
	}
	e.assertConsistent(t)

	types := e.pub.types()
	if types[len(types)-1] != pubsub.TypeLedgerRebuilt {
		t.Errorf("expected ledger.rebuilt notification, got %v", types)
	}
}

func TestAuditUnknownChampionship(t *testing.T) {
	e := newEnv(t)
	if _, err := e.ledger.Audit(e.ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
