package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/championship-league/internal/models"
)

// CreateTeam inserts a team. team.ID is populated on return.
func (s *Store) CreateTeam(ctx context.Context, team *models.Team) error {
	if err := s.conn(ctx).Create(team).Error; err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// GetTeam loads a team by id.
func (s *Store) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var t models.Team
	if err := s.first(ctx, &t, "team", id); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTeams returns the championship's teams in registration order.
func (s *Store) ListTeams(ctx context.Context, championshipID uuid.UUID) ([]models.Team, error) {
	var out []models.Team
	err := s.conn(ctx).Where("championship_id = ?", championshipID).
		Order("created_at ASC").Order("id ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return out, nil
}

// UpdateTeam saves the team's name and colors. Other columns are never touched.
func (s *Store) UpdateTeam(ctx context.Context, team *models.Team) error {
	err := s.conn(ctx).Model(team).Select("nome", "color_a", "color_b").Updates(team).Error
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	return nil
}

// DeleteTeamCascade removes a team together with everything that cannot outlive it: every
// match the team plays in (with their events) and the team's players (with their events).
// Goal and assist totals of players from other teams, and scores of surviving matches, are
// recounted from the remaining events so the ledger invariant still holds afterwards.
func (s *Store) DeleteTeamCascade(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetTeam(ctx, id); err != nil {
		return err
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var matchIDs []uuid.UUID
		if err := tx.Model(&models.Match{}).Where("time_a = ? OR time_b = ?", id, id).Pluck("id", &matchIDs).Error; err != nil {
			return fmt.Errorf("finding matches: %w", err)
		}
		var playerIDs []uuid.UUID
		if err := tx.Model(&models.Player{}).Where("team_id = ?", id).Pluck("id", &playerIDs).Error; err != nil {
			return fmt.Errorf("finding players: %w", err)
		}

		// Collect who else is affected before the events disappear.
		var otherPlayers []uuid.UUID
		err := tx.Model(&models.MatchEvent{}).Distinct("player_id").
			Where("match_id IN ?", nonEmpty(matchIDs)).
			Where("player_id NOT IN ?", nonEmpty(playerIDs)).
			Pluck("player_id", &otherPlayers).Error
		if err != nil {
			return fmt.Errorf("finding affected players: %w", err)
		}
		var otherMatches []uuid.UUID
		err = tx.Model(&models.MatchEvent{}).Distinct("match_id").
			Where("player_id IN ?", nonEmpty(playerIDs)).
			Where("match_id NOT IN ?", nonEmpty(matchIDs)).
			Pluck("match_id", &otherMatches).Error
		if err != nil {
			return fmt.Errorf("finding affected matches: %w", err)
		}

		err = tx.Where("match_id IN ? OR player_id IN ? OR team_id = ?", nonEmpty(matchIDs), nonEmpty(playerIDs), id).
			Delete(&models.MatchEvent{}).Error
		if err != nil {
			return fmt.Errorf("deleting events: %w", err)
		}
		if err := tx.Where("id IN ?", nonEmpty(matchIDs)).Delete(&models.Match{}).Error; err != nil {
			return fmt.Errorf("deleting matches: %w", err)
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.Player{}).Error; err != nil {
			return fmt.Errorf("deleting players: %w", err)
		}
		if err := tx.Delete(&models.Team{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting team: %w", err)
		}

		if err := recountPlayers(tx, otherPlayers); err != nil {
			return err
		}
		return recountMatches(tx, otherMatches)
	})
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

// nonEmpty keeps "IN ?" clauses valid when a list is empty: uuid.Nil never matches a row.
func nonEmpty(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return []uuid.UUID{uuid.Nil}
	}
	return ids
}
