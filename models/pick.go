package models

import (
	"time"

	"gorm.io/gorm"
)

// Pick is one player's answer to one prop; at most one per (player, prop),
// resubmission replaces the selection. PointsEarned is nil until the owning
// prop is resolved or voided and is only ever written by the resolution path.
// SelectedOptionIndex may point past the prop's current option count when the
// options were replaced after submission; such picks never score.
type Pick struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	PlayerID            uint           `json:"player_id" gorm:"not null;uniqueIndex:idx_picks_player_prop"`
	PropID              uint           `json:"prop_id" gorm:"not null;uniqueIndex:idx_picks_player_prop"`
	SelectedOptionIndex int            `json:"selected_option_index" gorm:"not null"`
	PointsEarned        *int           `json:"points_earned"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Player Player `json:"player,omitempty"`
	Prop   Prop   `json:"prop,omitempty"`
}
