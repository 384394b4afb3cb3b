package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/championship-league/internal/models"
)

// CreateChampionship inserts a new active championship owned by ownerID.
func (s *Store) CreateChampionship(ctx context.Context, ownerID uuid.UUID, name string) (*models.Championship, error) {
	c := models.Championship{
		OwnerID: ownerID,
		Name:    name,
		Status:  models.ChampionshipStatusActive,
	}
	if err := s.conn(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create championship: %w", err)
	}
	return &c, nil
}

// GetChampionship loads a championship by id.
func (s *Store) GetChampionship(ctx context.Context, id uuid.UUID) (*models.Championship, error) {
	var c models.Championship
	if err := s.first(ctx, &c, "championship", id); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChampionships returns the championships owned by ownerID, newest first.
// When all is true (admins) every championship is returned.
func (s *Store) ListChampionships(ctx context.Context, ownerID uuid.UUID, all bool) ([]models.Championship, error) {
	q := s.conn(ctx).Order("created_at DESC")
	if !all {
		q = q.Where("owner_id = ?", ownerID)
	}

	var out []models.Championship
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list championships: %w", err)
	}
	return out, nil
}

// RenameChampionship changes the championship's display name.
func (s *Store) RenameChampionship(ctx context.Context, id uuid.UUID, name string) (*models.Championship, error) {
	c, err := s.GetChampionship(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.conn(ctx).Model(c).Update("nome", name).Error; err != nil {
		return nil, fmt.Errorf("failed to rename championship: %w", err)
	}
	return c, nil
}

// FinalizeChampionship freezes the championship and records its champion.
// The caller is responsible for checking the champion belongs to the championship.
func (s *Store) FinalizeChampionship(ctx context.Context, id, championID uuid.UUID) (*models.Championship, error) {
	c, err := s.GetChampionship(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.conn(ctx).Model(c).Updates(map[string]any{
		"status":      models.ChampionshipStatusFinalized,
		"champion_id": championID,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to finalize championship: %w", err)
	}
	c.Status = models.ChampionshipStatusFinalized
	c.ChampionID = &championID
	return c, nil
}

// MarkChampionshipActive moves a reset championship back to active. It is a no-op for
// championships in any other state.
func (s *Store) MarkChampionshipActive(ctx context.Context, id uuid.UUID) error {
	err := s.conn(ctx).Model(&models.Championship{}).
		Where("id = ? AND status = ?", id, models.ChampionshipStatusReset).
		Update("status", models.ChampionshipStatusActive).Error
	if err != nil {
		return fmt.Errorf("failed to reactivate championship: %w", err)
	}
	return nil
}

// ResetChampionship removes every match and event of the championship, zeroes the goal and
// assist totals of its players and marks it as reset. Teams and players are kept.
func (s *Store) ResetChampionship(ctx context.Context, id uuid.UUID) (*models.Championship, error) {
	c, err := s.GetChampionship(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		matchIDs := tx.Model(&models.Match{}).Select("id").Where("championship_id = ?", id)
		if err := tx.Where("match_id IN (?)", matchIDs).Delete(&models.MatchEvent{}).Error; err != nil {
			return fmt.Errorf("deleting events: %w", err)
		}
		if err := tx.Where("championship_id = ?", id).Delete(&models.Match{}).Error; err != nil {
			return fmt.Errorf("deleting matches: %w", err)
		}

		teamIDs := tx.Model(&models.Team{}).Select("id").Where("championship_id = ?", id)
		err := tx.Model(&models.Player{}).Where("team_id IN (?)", teamIDs).
			Updates(map[string]any{"total_gols": 0, "total_assists": 0}).Error
		if err != nil {
			return fmt.Errorf("zeroing player totals: %w", err)
		}

		return tx.Model(&models.Championship{}).Where("id = ?", id).
			Updates(map[string]any{"status": models.ChampionshipStatusReset, "champion_id": nil}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset championship: %w", err)
	}

	c.Status = models.ChampionshipStatusReset
	c.ChampionID = nil
	return c, nil
}

// DeleteChampionship removes the championship with all of its teams, players, matches and
// events.
func (s *Store) DeleteChampionship(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetChampionship(ctx, id); err != nil {
		return err
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		matchIDs := tx.Model(&models.Match{}).Select("id").Where("championship_id = ?", id)
		teamIDs := tx.Model(&models.Team{}).Select("id").Where("championship_id = ?", id)

		if err := tx.Where("match_id IN (?)", matchIDs).Delete(&models.MatchEvent{}).Error; err != nil {
			return fmt.Errorf("deleting events: %w", err)
		}
		if err := tx.Where("championship_id = ?", id).Delete(&models.Match{}).Error; err != nil {
			return fmt.Errorf("deleting matches: %w", err)
		}
		if err := tx.Where("team_id IN (?)", teamIDs).Delete(&models.Player{}).Error; err != nil {
			return fmt.Errorf("deleting players: %w", err)
		}
		if err := tx.Where("championship_id = ?", id).Delete(&models.Team{}).Error; err != nil {
			return fmt.Errorf("deleting teams: %w", err)
		}
		return tx.Delete(&models.Championship{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete championship: %w", err)
	}
	return nil
}
