package models

import "pbs/src/types"

type Review struct {
	ID       uint    `gorm:"primarykey" json:"id"`
	PitchID  uint    `gorm:"index:idx_review_pitch_player,unique" json:"pitch_id,omitempty"`
	PlayerID uint    `gorm:"index:idx_review_pitch_player,unique" json:"player_id,omitempty"`
	Rating   int     `json:"rating"`
	Comment  *string `json:"comment,omitempty"`

	Pitch  *Pitch `gorm:"foreignKey:pitch_id" json:"-"`
	Player *User  `gorm:"foreignKey:player_id" json:"player,omitempty"`

	types.Timestamps
}
