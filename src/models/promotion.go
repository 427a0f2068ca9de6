package models

import (
	"pbs/src/types"
	"time"
)

type Promotion struct {
	ID                 uint      `gorm:"primarykey" json:"id"`
	Code               string    `gorm:"uniqueIndex" json:"code,omitempty"`
	Description        *string   `json:"description,omitempty"`
	DiscountPercentage int       `json:"discount_percentage"`
	MaxUses            *int      `json:"max_uses,omitempty"`
	CurrentUses        int       `gorm:"default:0" json:"current_uses"`
	ValidFrom          time.Time `json:"valid_from,omitempty"`
	ValidUntil         time.Time `json:"valid_until,omitempty"`

	types.Timestamps
}
