// Package ledger is the only writer of derived match state. Every goal or assist is stored as
// a MatchEvent, and the ledger keeps Match.ScoreA/ScoreB and Player.TotalGoals/TotalAssists
// equal to the count of those events.
//
// Apply and Retract each run in a single database transaction: either the event row and all
// of its counter updates are written, or none of them are.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/championship-league/internal/models"
	"github.com/trentd187/championship-league/internal/pubsub"
	"github.com/trentd187/championship-league/internal/store"
)

var (
	// ErrNotFound means a referenced match, player, event or championship does not exist.
	// It is the store's sentinel, so errors.Is works with either name.
	ErrNotFound = store.ErrNotFound

	// ErrInvalidState means the match or its championship is finalized.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation means the input itself is unacceptable.
	ErrValidation = errors.New("validation failed")
)

// Input describes an event to record.
type Input struct {
	MatchID  uuid.UUID
	PlayerID uuid.UUID
	TeamID   uuid.UUID // the team credited with the event, one of the match's two teams
	Kind     models.EventKind
	Minute   *int
}

// Ledger applies and retracts match events.
type Ledger struct {
	store *store.Store
	pub   pubsub.Publisher
	clock clockwork.Clock
}

// New creates a Ledger. A nil publisher discards notifications and a nil clock uses the real
// clock.
func New(s *store.Store, pub pubsub.Publisher, clock clockwork.Clock) *Ledger {
	if pub == nil {
		pub = pubsub.Discard{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Ledger{store: s, pub: pub, clock: clock}
}

func (in Input) validate() error {
	if in.MatchID == uuid.Nil || in.PlayerID == uuid.Nil || in.TeamID == uuid.Nil {
		return fmt.Errorf("%w: match_id, player_id and team_id are required", ErrValidation)
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrValidation, in.Kind)
	}
	if in.Minute != nil && (*in.Minute < models.MinMinute || *in.Minute > models.MaxMinute) {
		return fmt.Errorf("%w: minute must be between %d and %d", ErrValidation, models.MinMinute, models.MaxMinute)
	}
	return nil
}

// sideOf picks the score column credited to team: score_a for time_a, score_b otherwise.
func sideOf(m *models.Match, team uuid.UUID) store.Side {
	if team == m.TeamAID {
		return store.SideA
	}
	return store.SideB
}

// writable loads the match and its championship and refuses finalized ones.
func writable(ctx context.Context, tx *store.Store, matchID uuid.UUID) (*models.Match, error) {
	m, err := tx.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Finalized {
		return nil, fmt.Errorf("%w: match %s is finalized", ErrInvalidState, m.ID)
	}
	c, err := tx.GetChampionship(ctx, m.ChampionshipID)
	if err != nil {
		return nil, err
	}
	if c.IsFinalized() {
		return nil, fmt.Errorf("%w: championship %s is finalized", ErrInvalidState, c.ID)
	}
	return m, nil
}

// Apply records a new event and updates the derived score and player totals.
func (l *Ledger) Apply(ctx context.Context, in Input) (*models.MatchEvent, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		event *models.MatchEvent
		match *models.Match
	)
	err := l.store.WithTx(ctx, func(tx *store.Store) error {
		m, err := writable(ctx, tx, in.MatchID)
		if err != nil {
			return err
		}
		p, err := tx.GetPlayer(ctx, in.PlayerID)
		if err != nil {
			return err
		}
		if !m.Involves(in.TeamID) {
			return fmt.Errorf("%w: team %s does not play in match %s", ErrValidation, in.TeamID, m.ID)
		}
		if p.TeamID == nil || !m.Involves(*p.TeamID) {
			return fmt.Errorf("%w: player %s is not on either team of match %s", ErrValidation, p.ID, m.ID)
		}

		e := &models.MatchEvent{
			MatchID:   m.ID,
			PlayerID:  p.ID,
			TeamID:    in.TeamID,
			Kind:      in.Kind,
			Minute:    in.Minute,
			CreatedAt: l.clock.Now().UTC(),
		}
		if err := tx.CreateEvent(ctx, e); err != nil {
			return err
		}

		if e.Kind == models.EventKindGoal {
			if err := tx.IncrementScore(ctx, m.ID, sideOf(m, e.TeamID)); err != nil {
				return err
			}
		}
		if err := tx.IncrementPlayerCounter(ctx, p.ID, e.Kind); err != nil {
			return err
		}

		event, match = e, m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", in.Kind, err)
	}

	log.Debug().
		Str("event_id", event.ID.String()).
		Str("match_id", event.MatchID.String()).
		Str("player_id", event.PlayerID.String()).
		Str("kind", string(event.Kind)).
		Msg("ledger: event applied")

	l.pub.Publish(pubsub.Event{
		Type:           pubsub.TypeEventApplied,
		ChampionshipID: match.ChampionshipID,
		MatchID:        &match.ID,
		Payload:        event,
		At:             l.clock.Now().UTC(),
	})
	return event, nil
}

// Retract deletes an event and reverses its effect on the score and the player's totals.
// A decrement that would go below zero is floored and logged as drift; Audit reports it.
// If the player has been deleted since, only the score is adjusted.
func (l *Ledger) Retract(ctx context.Context, eventID uuid.UUID) error {
	var (
		event *models.MatchEvent
		match *models.Match
	)
	err := l.store.WithTx(ctx, func(tx *store.Store) error {
		e, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		m, err := writable(ctx, tx, e.MatchID)
		if err != nil {
			return err
		}
		if err := tx.DeleteEvent(ctx, e.ID); err != nil {
			return err
		}

		if e.Kind == models.EventKindGoal {
			side := sideOf(m, e.TeamID)
			clamped, err := tx.DecrementScore(ctx, m.ID, side)
			if err != nil {
				return err
			}
			if clamped {
				log.Warn().
					Str("match_id", m.ID.String()).
					Str("event_id", e.ID.String()).
					Msg("ledger: score already zero on retract, counter drift detected")
			}
		}

		clamped, err := tx.DecrementPlayerCounter(ctx, e.PlayerID, e.Kind)
		if err != nil {
			return err
		}
		if clamped {
			log.Warn().
				Str("player_id", e.PlayerID.String()).
				Str("event_id", e.ID.String()).
				Str("kind", string(e.Kind)).
				Msg("ledger: player total already zero or player missing on retract, counter drift detected")
		}

		event, match = e, m
		return nil
	})
	if err != nil {
		return fmt.Errorf("retract event %s: %w", eventID, err)
	}

	log.Debug().
		Str("event_id", event.ID.String()).
		Str("match_id", event.MatchID.String()).
		Msg("ledger: event retracted")

	l.pub.Publish(pubsub.Event{
		Type:           pubsub.TypeEventRetracted,
		ChampionshipID: match.ChampionshipID,
		MatchID:        &match.ID,
		Payload:        event,
		At:             l.clock.Now().UTC(),
	})
	return nil
}
