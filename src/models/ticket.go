package models

import (
	"ers/src/types"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ticket is the immutable artifact issued after a confirmed payment. Event
// and tier fields are snapshots taken at materialization, never live joins,
// so later edits to the event or tier do not alter issued tickets.
type Ticket struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	TicketNumber string `gorm:"uniqueIndex" json:"ticket_number"`

	RegistrationID uuid.UUID `gorm:"type:uuid" json:"registration_id,omitempty"`
	TransactionID  uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"transaction_id,omitempty"`
	UserID         uint      `json:"user_id,omitempty"`
	EventID        uint      `json:"event_id,omitempty"`

	EventName  string `json:"event_name,omitempty"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
	Location   string `json:"location,omitempty"`
	Image      string `json:"image,omitempty"`
	TicketType string `json:"ticket_type,omitempty"`

	Price    decimal.Decimal `gorm:"type:numeric(10,2)" json:"price"`
	Currency string          `json:"currency,omitempty"`

	Status        types.TicketStatus `gorm:"default:'upcoming'" json:"status,omitempty"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	TxHash        *string            `json:"tx_hash,omitempty"`
	Blockchain    *string            `json:"blockchain,omitempty"`
	PurchaseDate  time.Time          `json:"purchase_date,omitempty"`

	types.Timestamps
}
