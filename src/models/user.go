package models

import (
	"ers/src/types"
	"time"
)

type User struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Name       string    `json:"name,omitempty"`
	Email      string    `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Role       string    `gorm:"default:'attendee'" json:"role,omitempty"`
	LastActive time.Time `json:"last_active,omitempty"`

	Registrations []Registration `gorm:"foreignKey:user_id" json:"registrations,omitempty"`
	Tickets       []Ticket       `gorm:"foreignKey:user_id" json:"tickets,omitempty"`
	Rewards       []Reward       `gorm:"foreignKey:user_id" json:"rewards,omitempty"`

	types.Timestamps
}
