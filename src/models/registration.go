package models

import (
	"ers/src/types"

	"github.com/google/uuid"
)

// Registration is the pending record created when a wizard draft is
// confirmed, before payment completes. Team member names are stored already
// filtered of empty placeholder rows.
type Registration struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	UserID       uint `json:"user_id,omitempty"`
	EventID      uint `json:"event_id,omitempty"`
	TicketTierID uint `json:"ticket_tier_id,omitempty"`

	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`

	DietaryRestrictions string            `json:"dietary_restrictions,omitempty"`
	TeamMembers         types.StringSlice `gorm:"type:jsonb" json:"team_members,omitempty"`

	Status        types.RegistrationStatus `gorm:"default:'pending'" json:"status,omitempty"`
	TransactionID *uuid.UUID               `gorm:"type:uuid" json:"transaction_id,omitempty"`

	Event       Event        `gorm:"foreignKey:event_id" json:"-"`
	User        User         `gorm:"foreignKey:user_id" json:"-"`
	Transaction *Transaction `gorm:"foreignKey:transaction_id" json:"transaction,omitempty"`

	types.Timestamps
}
