package models

import (
	"ers/src/types"
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	Title       string            `json:"title,omitempty"`
	Slug        string            `gorm:"index" json:"slug,omitempty"`
	Description string            `json:"description,omitempty"`
	Location    string            `json:"location,omitempty"`
	DateTime    time.Time         `json:"date_time,omitempty"`
	Image       string            `json:"image,omitempty"`
	Status      types.EventStatus `gorm:"default:'draft'" json:"status,omitempty"`
	OrganizerID uint              `json:"organizer,omitempty"`

	Organizer User         `gorm:"foreignKey:organizer_id" json:"-"`
	Tiers     []TicketTier `gorm:"foreignKey:event_id" json:"ticket_tiers,omitempty"`

	types.Timestamps
}

// Tier looks up a tier by id in the event snapshot. The returned pointer
// aliases the snapshot; callers must not mutate it.
func (e *Event) Tier(id uint) *TicketTier {
	for i := range e.Tiers {
		if e.Tiers[i].ID == id {
			return &e.Tiers[i]
		}
	}
	return nil
}

type TicketTier struct {
	ID                uint              `gorm:"primarykey" json:"id"`
	EventID           uint              `json:"event_id,omitempty"`
	Name              string            `json:"name,omitempty"`
	Description       string            `json:"description,omitempty"`
	Price             decimal.Decimal   `gorm:"type:numeric(10,2)" json:"price"`
	Currency          string            `json:"currency,omitempty"`
	Benefits          types.StringSlice `gorm:"type:jsonb" json:"benefits,omitempty"`
	Available         bool              `gorm:"default:true" json:"available"`
	MaxPerTransaction uint              `gorm:"default:1" json:"max_per_transaction,omitempty"`

	types.Timestamps
}
