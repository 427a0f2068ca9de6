package models

import (
	"pbs/src/types"

	"github.com/google/uuid"
)

type Payment struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	BookingID     uint                `gorm:"uniqueIndex" json:"booking_id,omitempty"`
	Amount        float64             `json:"amount"`
	Status        types.PaymentStatus `gorm:"default:'pending'" json:"status,omitempty"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	TransactionID *uuid.UUID          `gorm:"type:uuid" json:"transaction_id,omitempty"`
	IntentID      *string             `json:"-"`

	Booking *Booking `gorm:"foreignKey:booking_id" json:"booking,omitempty"`

	types.Timestamps
}
