// Package models defines the data structures that map to database tables.
// GORM uses these structs to generate SQL queries and map rows back to Go values; the json
// tags define the wire shape the API sends to clients.
//
// The data model represents a championship platform where:
//   - Users own Championships
//   - Championships contain Teams, and Teams contain Players
//   - Matches are played between two Teams of the same Championship
//   - MatchEvents record goals and assists scored by a Player in a Match
//
// Match scores and Player goal/assist totals are derived state: they must always equal the
// count of the matching MatchEvents. Only the ledger package is allowed to change them.
package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Enums ---
// Named string types plus constants: type safety in Go, readable values in the database.

// UserRole represents a user's global permission level across the platform.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin" // Can see and repair every championship
	UserRoleUser  UserRole = "user"  // Manages only the championships they own
)

// ChampionshipStatus tracks the lifecycle of a championship.
type ChampionshipStatus string

const (
	ChampionshipStatusActive    ChampionshipStatus = "active"    // Accepting teams, matches and events
	ChampionshipStatusFinalized ChampionshipStatus = "finalized" // Champion chosen; everything below is read-only
	ChampionshipStatusReset     ChampionshipStatus = "reset"     // Matches and events cleared; teams and players kept
)

// EventKind is the kind of a scoring event. The values match the stored "event_type" column.
type EventKind string

const (
	EventKindGoal   EventKind = "gol"
	EventKindAssist EventKind = "assist"
)

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	return k == EventKindGoal || k == EventKindAssist
}

// Minute bounds for a MatchEvent (regular time plus extra time).
const (
	MinMinute = 0
	MaxMinute = 120
)

// Jersey number bounds for a Player.
const (
	MinJerseyNumber = 0
	MaxJerseyNumber = 99
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidColor reports whether s is a hex color in #RRGGBB form.
func ValidColor(s string) bool {
	return colorPattern.MatchString(s)
}

// --- Models ---

// Base carries the UUID primary key shared by every table. It must stay exported: GORM only
// maps exported embedded structs. IDs are generated in Go (BeforeCreate) so the same models
// work on postgres and sqlite.
type Base struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
}

// BeforeCreate is a GORM hook that assigns a new UUID when none was set.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// User represents an authenticated person. Users are created the first time a valid token
// with a new subject reaches the API.
type User struct {
	Base
	Subject     string    `gorm:"uniqueIndex;not null" json:"-"` // The token's "sub" claim
	DisplayName string    `gorm:"not null" json:"display_name"`
	Email       string    `gorm:"not null" json:"email"`
	Role        UserRole  `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Championship is the top-level container: a tournament instance owning teams and matches.
type Championship struct {
	Base
	OwnerID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name       string             `gorm:"column:nome;not null" json:"nome"`
	Status     ChampionshipStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	ChampionID *uuid.UUID         `gorm:"type:uuid" json:"champion_id"` // Set when the championship is finalized
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// IsFinalized reports whether the championship no longer accepts changes.
func (c *Championship) IsFinalized() bool {
	return c.Status == ChampionshipStatusFinalized
}

// Team is a club registered in a championship.
type Team struct {
	Base
	ChampionshipID uuid.UUID `gorm:"type:uuid;not null;index" json:"championship_id"`
	Name           string    `gorm:"column:nome;not null" json:"nome"`
	ColorA         string    `gorm:"not null" json:"color_a"` // Primary color, #RRGGBB
	ColorB         *string   `json:"color_b"`                 // Optional secondary color
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Player belongs to (at most) one team. TotalGoals and TotalAssists are ledger-maintained.
type Player struct {
	Base
	TeamID       *uuid.UUID `gorm:"type:uuid;index" json:"team_id"`
	Name         string     `gorm:"column:nome;not null" json:"nome"`
	Number       *int       `gorm:"column:numero" json:"numero"`  // Jersey number
	Position     *string    `gorm:"column:posicao" json:"posicao"` // Free-form position label
	TotalGoals   int        `gorm:"column:total_gols;not null;default:0" json:"total_gols"`
	TotalAssists int        `gorm:"column:total_assists;not null;default:0" json:"total_assists"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Match is a fixture between two different teams of the same championship.
// ScoreA and ScoreB are ledger-maintained; once Finalized is true the match is frozen.
type Match struct {
	Base
	ChampionshipID uuid.UUID `gorm:"type:uuid;not null;index" json:"championship_id"`
	TeamAID        uuid.UUID `gorm:"column:time_a;type:uuid;not null" json:"time_a"`
	TeamBID        uuid.UUID `gorm:"column:time_b;type:uuid;not null" json:"time_b"`
	Phase          string    `gorm:"column:type;not null" json:"type"`       // grupo, oitavas, quartas, semi, final...
	ScheduledDate  string    `gorm:"not null" json:"scheduled_date"`         // YYYY-MM-DD
	ScheduledTime  string    `gorm:"not null" json:"scheduled_time"`         // HH:MM:SS
	ScoreA         int       `gorm:"not null;default:0" json:"score_a"`
	ScoreB         int       `gorm:"not null;default:0" json:"score_b"`
	Finalized      bool      `gorm:"not null;default:false" json:"finalized"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Involves reports whether the team plays in this match.
func (m *Match) Involves(teamID uuid.UUID) bool {
	return m.TeamAID == teamID || m.TeamBID == teamID
}

// MatchEvent is a single goal or assist credited to a player for a team in a match.
// Events are the source of truth for every score and counter.
type MatchEvent struct {
	Base
	MatchID   uuid.UUID `gorm:"type:uuid;not null;index" json:"match_id"`
	PlayerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"player_id"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null" json:"team_id"`
	Kind      EventKind `gorm:"column:event_type;type:varchar(16);not null" json:"event_type"`
	Minute    *int      `json:"minute"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every model in dependency order, for AutoMigrate on sqlite.
func All() []any {
	return []any{&User{}, &Championship{}, &Team{}, &Player{}, &Match{}, &MatchEvent{}}
}
