// Package store is the persistence layer: every read and write the API and the ledger make
// against the database goes through a *Store.
//
// Cascades are explicit, named operations (DeleteTeamCascade, DeleteChampionship,
// ResetChampionship, DeleteMatch, DeletePlayer), each run in one transaction so a failure
// part-way leaves nothing half-deleted.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/championship-league/internal/models"
)

// ErrNotFound is returned (wrapped) whenever a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a *gorm.DB. A Store handed to a WithTx callback is bound to that transaction.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an open database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a database transaction. If fn returns an error the transaction is
// rolled back, otherwise it is committed. Nested calls use savepoints.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// first loads one row by primary key into dest, translating gorm's not-found error.
func (s *Store) first(ctx context.Context, dest any, what string, id uuid.UUID) error {
	err := s.conn(ctx).First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", what, id, err)
	}
	return nil
}

// FindOrCreateUser returns the user with the given token subject, creating it on first
// sight. When the token carried an explicit role, a changed role is synced to the row.
func (s *Store) FindOrCreateUser(ctx context.Context, subject, name, email string, role models.UserRole, roleFromToken bool) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).Where("subject = ?", subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Subject:     subject,
			DisplayName: name,
			Email:       email,
			Role:        role,
		}
		if err := s.conn(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if roleFromToken && user.Role != role {
		if err := s.conn(ctx).Model(&user).Update("role", role).Error; err != nil {
			return nil, fmt.Errorf("failed to sync user role: %w", err)
		}
		user.Role = role
	}
	return &user, nil
}
