package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PropStatusActive = "active"
	PropStatusVoided = "voided"
)

// Prop is one multiple-choice question in a pool. CorrectOptionIndex stays
// nil until the captain resolves the prop; a voided prop always has it nil.
type Prop struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	PoolID             uint           `json:"pool_id" gorm:"not null"`
	Question           string         `json:"question" gorm:"not null"`
	PointValue         int            `json:"point_value" gorm:"not null"`
	CorrectOptionIndex *int           `json:"correct_option_index"`
	Status             string         `json:"status" gorm:"not null;default:'active'"` // active, voided
	Order              int            `json:"order" gorm:"column:display_order;not null"`
	Category           string         `json:"category"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Pool    Pool     `json:"pool,omitempty"`
	Options []Option `json:"options,omitempty" gorm:"foreignKey:PropID"`
	Picks   []Pick   `json:"picks,omitempty" gorm:"foreignKey:PropID"`
}

// OptionTexts returns the option labels in display order. Options must have
// been preloaded ordered by their index.
func (p *Prop) OptionTexts() []string {
	texts := make([]string, len(p.Options))
	for i, opt := range p.Options {
		texts[i] = opt.Text
	}
	return texts
}
