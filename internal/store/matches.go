package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/championship-league/internal/models"
)

// CreateMatch inserts an open match with a 0-0 score.
func (s *Store) CreateMatch(ctx context.Context, m *models.Match) error {
	m.ScoreA, m.ScoreB, m.Finalized = 0, 0, false
	if err := s.conn(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetMatch loads a match by id.
func (s *Store) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var m models.Match
	if err := s.first(ctx, &m, "match", id); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMatches returns the championship's matches in schedule order.
func (s *Store) ListMatches(ctx context.Context, championshipID uuid.UUID) ([]models.Match, error) {
	var out []models.Match
	err := s.conn(ctx).Where("championship_id = ?", championshipID).
		Order("scheduled_date ASC").Order("scheduled_time ASC").Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return out, nil
}

// UpdateMatchSchedule saves the phase label, date and time. Teams, scores and the finalized
// flag cannot be changed this way.
func (s *Store) UpdateMatchSchedule(ctx context.Context, m *models.Match) error {
	err := s.conn(ctx).Model(m).Select("type", "scheduled_date", "scheduled_time").Updates(m).Error
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return nil
}

// FinalizeMatch moves an open match to finalized. Finalizing twice is harmless.
func (s *Store) FinalizeMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Finalized {
		return m, nil
	}
	if err := s.conn(ctx).Model(m).Update("finalized", true).Error; err != nil {
		return nil, fmt.Errorf("failed to finalize match: %w", err)
	}
	m.Finalized = true
	return m, nil
}

// DeleteMatch removes a match and its events, then recounts the totals of every player who
// had an event in it.
func (s *Store) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetMatch(ctx, id); err != nil {
		return err
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var playerIDs []uuid.UUID
		err := tx.Model(&models.MatchEvent{}).Distinct("player_id").
			Where("match_id = ?", id).Pluck("player_id", &playerIDs).Error
		if err != nil {
			return fmt.Errorf("finding players: %w", err)
		}
		if err := tx.Where("match_id = ?", id).Delete(&models.MatchEvent{}).Error; err != nil {
			return fmt.Errorf("deleting events: %w", err)
		}
		if err := tx.Delete(&models.Match{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting match: %w", err)
		}
		return recountPlayers(tx, playerIDs)
	})
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return nil
}
