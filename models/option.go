package models

import (
	"time"

	"gorm.io/gorm"
)

// Option is one answer choice of a prop. Order is the option's index as
// referenced by Pick.SelectedOptionIndex and Prop.CorrectOptionIndex.
type Option struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	PropID    uint           `json:"prop_id" gorm:"not null"`
	Text      string         `json:"text" gorm:"not null"`
	Order     int            `json:"order" gorm:"column:display_order;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Prop Prop `json:"prop,omitempty"`
}
