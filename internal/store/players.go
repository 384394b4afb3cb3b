package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/championship-league/internal/models"
)

// CreatePlayer inserts a player. Goal and assist totals always start at zero, whatever the
// caller put in the struct.
func (s *Store) CreatePlayer(ctx context.Context, p *models.Player) error {
	p.TotalGoals, p.TotalAssists = 0, 0
	if err := s.conn(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// GetPlayer loads a player by id.
func (s *Store) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	if err := s.first(ctx, &p, "player", id); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlayersByTeam returns a team's roster ordered by jersey number.
func (s *Store) ListPlayersByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	var out []models.Player
	err := s.conn(ctx).Where("team_id = ?", teamID).
		Order("numero ASC").Order("nome ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return out, nil
}

// ListPlayersByChampionship returns every player whose team belongs to the championship,
// top scorers first.
func (s *Store) ListPlayersByChampionship(ctx context.Context, championshipID uuid.UUID) ([]models.Player, error) {
	var out []models.Player
	err := s.conn(ctx).
		Joins("JOIN teams ON teams.id = players.team_id").
		Where("teams.championship_id = ?", championshipID).
		Order("players.total_gols DESC").Order("players.nome ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return out, nil
}

// ListPlayersByIDs loads the given players; ids that do not exist are skipped.
func (s *Store) ListPlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Player
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return out, nil
}

// UpdatePlayer saves the player's profile fields and team. Goal and assist totals are
// ledger-maintained and deliberately excluded.
func (s *Store) UpdatePlayer(ctx context.Context, p *models.Player) error {
	err := s.conn(ctx).Model(p).Select("team_id", "nome", "numero", "posicao").Updates(p).Error
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

// CountFinalizedEventsForPlayer counts the player's events that belong to finalized matches.
func (s *Store) CountFinalizedEventsForPlayer(ctx context.Context, playerID uuid.UUID) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.MatchEvent{}).
		Joins("JOIN matches ON matches.id = match_events.match_id").
		Where("match_events.player_id = ? AND matches.finalized = ?", playerID, true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count player events: %w", err)
	}
	return n, nil
}

// DeletePlayer removes a player and its events, then recounts the scores of the matches
// those events belonged to.
func (s *Store) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetPlayer(ctx, id); err != nil {
		return err
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var matchIDs []uuid.UUID
		err := tx.Model(&models.MatchEvent{}).Distinct("match_id").
			Where("player_id = ?", id).Pluck("match_id", &matchIDs).Error
		if err != nil {
			return fmt.Errorf("finding matches: %w", err)
		}
		if err := tx.Where("player_id = ?", id).Delete(&models.MatchEvent{}).Error; err != nil {
			return fmt.Errorf("deleting events: %w", err)
		}
		if err := tx.Delete(&models.Player{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting player: %w", err)
		}
		return recountMatches(tx, matchIDs)
	})
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return nil
}
