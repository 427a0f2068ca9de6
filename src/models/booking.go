package models

import (
	"pbs/src/types"
	"time"
)

type Booking struct {
	ID         uint                `gorm:"primarykey" json:"id"`
	PitchID    uint                `gorm:"index" json:"pitch_id,omitempty"`
	PlayerID   uint                `gorm:"index" json:"player_id,omitempty"`
	Date       time.Time           `gorm:"type:date;index" json:"date,omitempty"`
	StartTime  string              `json:"start_time,omitempty"`
	EndTime    string              `json:"end_time,omitempty"`
	Status     types.BookingStatus `gorm:"default:'pending'" json:"status,omitempty"`
	TotalPrice float64             `json:"total_price"`
	PromoID    *uint               `json:"promo_id,omitempty"`

	Pitch   *Pitch     `gorm:"foreignKey:pitch_id" json:"pitch,omitempty"`
	Player  *User      `gorm:"foreignKey:player_id" json:"player,omitempty"`
	Promo   *Promotion `gorm:"foreignKey:promo_id" json:"-"`
	Payment *Payment   `gorm:"foreignKey:booking_id" json:"payment,omitempty"`

	types.Timestamps
}
