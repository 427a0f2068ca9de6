package models

import (
	"pbs/src/types"
	"time"
)

type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Username      string         `gorm:"uniqueIndex" json:"username,omitempty"`
	Email         string         `gorm:"uniqueIndex" json:"email,omitempty"`
	PasswordHash  string         `json:"-"`
	Role          types.UserRole `gorm:"default:'player'" json:"role,omitempty"`
	PhoneNumber   string         `json:"phone_number,omitempty"`
	Position      string         `json:"position,omitempty"`
	SkillLevel    int            `gorm:"default:1" json:"skill_level,omitempty"`
	ReservedHours int            `gorm:"default:0" json:"reserved_hours"`
	DeviceToken   *string        `json:"-"`
	LastActivity  *time.Time     `json:"last_activity,omitempty"`

	Pitches  []Pitch   `gorm:"foreignKey:owner_id" json:"pitches,omitempty"`
	Bookings []Booking `gorm:"foreignKey:player_id" json:"bookings,omitempty"`

	types.Timestamps
}

// Online reports whether the user was active within the presence window.
func (u *User) Online(now time.Time, window time.Duration) bool {
	return u.LastActivity != nil && !u.LastActivity.Before(now.Add(-window))
}
