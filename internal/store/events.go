package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/championship-league/internal/models"
)

// Side selects one of the two score columns of a match.
type Side int

const (
	SideA Side = iota // score_a, the time_a team
	SideB             // score_b, the time_b team
)

func (s Side) column() string {
	if s == SideB {
		return "score_b"
	}
	return "score_a"
}

func counterColumn(kind models.EventKind) (string, error) {
	switch kind {
	case models.EventKindGoal:
		return "total_gols", nil
	case models.EventKindAssist:
		return "total_assists", nil
	default:
		return "", fmt.Errorf("unknown event kind %q", kind)
	}
}

// CreateEvent inserts a match event. Derived scores and totals are not touched here.
func (s *Store) CreateEvent(ctx context.Context, e *models.MatchEvent) error {
	if err := s.conn(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetEvent loads an event by id.
func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*models.MatchEvent, error) {
	var e models.MatchEvent
	if err := s.first(ctx, &e, "event", id); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEvent removes an event row.
func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Delete(&models.MatchEvent{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListEventsByMatch returns a match's events in the order they were recorded.
func (s *Store) ListEventsByMatch(ctx context.Context, matchID uuid.UUID) ([]models.MatchEvent, error) {
	var out []models.MatchEvent
	err := s.conn(ctx).Where("match_id = ?", matchID).
		Order("created_at ASC").Order("id ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// ListEventsByChampionship returns every event recorded in the championship's matches.
func (s *Store) ListEventsByChampionship(ctx context.Context, championshipID uuid.UUID) ([]models.MatchEvent, error) {
	var out []models.MatchEvent
	err := s.conn(ctx).
		Joins("JOIN matches ON matches.id = match_events.match_id").
		Where("matches.championship_id = ?", championshipID).
		Order("match_events.created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// ListEventsByPlayers returns every event credited to any of the given players, whatever
// championship it was recorded in.
func (s *Store) ListEventsByPlayers(ctx context.Context, playerIDs []uuid.UUID) ([]models.MatchEvent, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}
	var out []models.MatchEvent
	if err := s.conn(ctx).Where("player_id IN ?", playerIDs).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// --- Derived state primitives ---
// Only the ledger calls these. Increments are done in SQL (x = x + 1) so concurrent writers
// do not lose updates; decrements never take a column below zero.

// IncrementScore adds one goal to a side of the match.
func (s *Store) IncrementScore(ctx context.Context, matchID uuid.UUID, side Side) error {
	col := side.column()
	res := s.conn(ctx).Model(&models.Match{}).Where("id = ?", matchID).
		Update(col, gorm.Expr(col+" + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to increment %s: %w", col, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	return nil
}

// DecrementScore removes one goal from a side of the match. It reports clamped=true when
// the score was already zero and therefore left unchanged.
func (s *Store) DecrementScore(ctx context.Context, matchID uuid.UUID, side Side) (clamped bool, err error) {
	col := side.column()
	res := s.conn(ctx).Model(&models.Match{}).Where("id = ? AND "+col+" > 0", matchID).
		Update(col, gorm.Expr(col+" - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement %s: %w", col, res.Error)
	}
	return res.RowsAffected == 0, nil
}

// IncrementPlayerCounter adds one to the player's goal or assist total.
func (s *Store) IncrementPlayerCounter(ctx context.Context, playerID uuid.UUID, kind models.EventKind) error {
	col, err := counterColumn(kind)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Model(&models.Player{}).Where("id = ?", playerID).
		Update(col, gorm.Expr(col+" + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to increment %s: %w", col, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return nil
}

// DecrementPlayerCounter removes one from the player's goal or assist total, reporting
// clamped=true when the total was already zero (or the player no longer exists).
func (s *Store) DecrementPlayerCounter(ctx context.Context, playerID uuid.UUID, kind models.EventKind) (clamped bool, err error) {
	col, err := counterColumn(kind)
	if err != nil {
		return false, err
	}
	res := s.conn(ctx).Model(&models.Player{}).Where("id = ? AND "+col+" > 0", playerID).
		Update(col, gorm.Expr(col+" - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement %s: %w", col, res.Error)
	}
	return res.RowsAffected == 0, nil
}

// SetScores overwrites both scores of a match.
func (s *Store) SetScores(ctx context.Context, matchID uuid.UUID, scoreA, scoreB int) error {
	err := s.conn(ctx).Model(&models.Match{}).Where("id = ?", matchID).
		Updates(map[string]any{"score_a": scoreA, "score_b": scoreB}).Error
	if err != nil {
		return fmt.Errorf("failed to set scores: %w", err)
	}
	return nil
}

// SetPlayerCounters overwrites a player's goal and assist totals.
func (s *Store) SetPlayerCounters(ctx context.Context, playerID uuid.UUID, goals, assists int) error {
	err := s.conn(ctx).Model(&models.Player{}).Where("id = ?", playerID).
		Updates(map[string]any{"total_gols": goals, "total_assists": assists}).Error
	if err != nil {
		return fmt.Errorf("failed to set player totals: %w", err)
	}
	return nil
}

// recountPlayers recomputes goal and assist totals of the given players from their events.
func recountPlayers(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	err := tx.Model(&models.Player{}).Where("id IN ?", ids).Updates(map[string]any{
		"total_gols":    gorm.Expr("(SELECT COUNT(*) FROM match_events e WHERE e.player_id = players.id AND e.event_type = ?)", models.EventKindGoal),
		"total_assists": gorm.Expr("(SELECT COUNT(*) FROM match_events e WHERE e.player_id = players.id AND e.event_type = ?)", models.EventKindAssist),
	}).Error
	if err != nil {
		return fmt.Errorf("recounting players: %w", err)
	}
	return nil
}

// recountMatches recomputes both scores of the given matches from their goal events.
func recountMatches(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	err := tx.Model(&models.Match{}).Where("id IN ?", ids).Updates(map[string]any{
		"score_a": gorm.Expr("(SELECT COUNT(*) FROM match_events e WHERE e.match_id = matches.id AND e.team_id = matches.time_a AND e.event_type = ?)", models.EventKindGoal),
		"score_b": gorm.Expr("(SELECT COUNT(*) FROM match_events e WHERE e.match_id = matches.id AND e.team_id = matches.time_b AND e.event_type = ?)", models.EventKindGoal),
	}).Error
	if err != nil {
		return fmt.Errorf("recounting matches: %w", err)
	}
	return nil
}
