package models

import "pbs/src/types"

type Setting struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Key         string  `gorm:"uniqueIndex" json:"key,omitempty"`
	Value       string  `json:"value,omitempty"`
	Description *string `json:"description,omitempty"`

	types.Timestamps
}
