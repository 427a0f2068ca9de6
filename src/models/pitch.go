package models

import "pbs/src/types"

type Pitch struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	Name         string            `json:"name,omitempty"`
	Slug         string            `gorm:"index" json:"slug,omitempty"`
	Description  *string           `json:"description,omitempty"`
	Location     string            `json:"location,omitempty"`
	Latitude     *float64          `json:"latitude,omitempty"`
	Longitude    *float64          `json:"longitude,omitempty"`
	SurfaceType  types.SurfaceType `json:"surface_type,omitempty"`
	Size         string            `json:"size,omitempty"`
	PricePerHour float64           `json:"price_per_hour,omitempty"`
	ImageKey     string            `json:"image_key,omitempty"`
	OwnerID      uint              `json:"owner_id,omitempty"`

	Owner          *User               `gorm:"foreignKey:owner_id" json:"owner,omitempty"`
	Availabilities []PitchAvailability `gorm:"foreignKey:pitch_id" json:"availabilities,omitempty"`
	Bookings       []Booking           `gorm:"foreignKey:pitch_id" json:"bookings,omitempty"`
	Reviews        []Review            `gorm:"foreignKey:pitch_id" json:"reviews,omitempty"`

	types.Timestamps
}

// PitchAvailability is one weekly-template entry. DayOfWeek runs 0=Monday
// through 6=Sunday. Times are wall-clock "15:04" strings.
type PitchAvailability struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	PitchID     uint   `gorm:"index:idx_pitch_day,unique" json:"pitch_id,omitempty"`
	DayOfWeek   int    `gorm:"index:idx_pitch_day,unique" json:"day_of_week"`
	OpeningTime string `json:"opening_time,omitempty"`
	ClosingTime string `json:"closing_time,omitempty"`
	IsAvailable bool   `gorm:"default:true" json:"is_available"`

	Pitch *Pitch `gorm:"foreignKey:pitch_id" json:"-"`

	types.Timestamps
}
