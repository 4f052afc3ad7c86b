package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PlayerStatusActive  = "active"
	PlayerStatusRemoved = "removed"
)

// Player is a pool participant. TotalPoints caches the sum of the player's
// non-null Pick.PointsEarned values; it is rewritten from the pick rows
// whenever any of them change, never patched incrementally.
type Player struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	PoolID      uint           `json:"pool_id" gorm:"not null"`
	Name        string         `json:"name" gorm:"not null"`
	Secret      string         `json:"-" gorm:"not null"`
	TotalPoints int            `json:"total_points" gorm:"not null;default:0"`
	Status      string         `json:"status" gorm:"not null;default:'active'"` // active, removed
	JoinedAt    time.Time      `json:"joined_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Pool  Pool   `json:"pool,omitempty"`
	Picks []Pick `json:"picks,omitempty" gorm:"foreignKey:PlayerID"`
}
