package models

import (
	"time"

	"gorm.io/gorm"
)

// Pool lifecycle statuses. Transitions are forward-only.
const (
	PoolStatusDraft     = "draft"
	PoolStatusOpen      = "open"
	PoolStatusLocked    = "locked"
	PoolStatusCompleted = "completed"
)

type Pool struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"not null"`
	InviteCode    string         `json:"invite_code" gorm:"uniqueIndex;not null"`
	CaptainName   string         `json:"captain_name" gorm:"not null"`
	CaptainSecret string         `json:"-" gorm:"not null"`
	Status        string         `json:"status" gorm:"not null;default:'draft'"` // draft, open, locked, completed
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Props   []Prop   `json:"props,omitempty" gorm:"foreignKey:PoolID"`
	Players []Player `json:"players,omitempty" gorm:"foreignKey:PoolID"`
}
