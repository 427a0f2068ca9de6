package models

import (
	"pbs/src/types"
	"time"
)

type Tournament struct {
	ID                   uint       `gorm:"primarykey" json:"id"`
	Name                 string     `json:"name,omitempty"`
	Description          *string    `json:"description,omitempty"`
	PitchID              uint       `gorm:"index" json:"pitch_id,omitempty"`
	OrganizerID          uint       `json:"organizer_id,omitempty"`
	Date                 time.Time  `gorm:"type:date" json:"date,omitempty"`
	StartTime            string     `json:"start_time,omitempty"`
	EndTime              string     `json:"end_time,omitempty"`
	MaxTeams             *int       `json:"max_teams,omitempty"`
	RegistrationFee      float64    `gorm:"default:0" json:"registration_fee"`
	RegistrationDeadline *time.Time `gorm:"type:date" json:"registration_deadline,omitempty"`

	Pitch     *Pitch           `gorm:"foreignKey:pitch_id" json:"pitch,omitempty"`
	Organizer *User            `gorm:"foreignKey:organizer_id" json:"organizer,omitempty"`
	Teams     []TournamentTeam `gorm:"foreignKey:tournament_id" json:"teams,omitempty"`

	types.Timestamps
}

type TournamentTeam struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	TournamentID uint   `gorm:"index;index:idx_tournament_team,unique" json:"tournament_id,omitempty"`
	Name         string `gorm:"index:idx_tournament_team,unique" json:"name,omitempty"`
	CaptainID    uint   `json:"captain_id,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`

	Tournament *Tournament `gorm:"foreignKey:tournament_id" json:"-"`
	Captain    *User       `gorm:"foreignKey:captain_id" json:"captain,omitempty"`

	types.Timestamps
}
