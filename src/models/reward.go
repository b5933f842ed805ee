package models

import "ers/src/types"

// Reward is a points ledger entry credited when a ticket is issued.
type Reward struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	UserID   uint   `json:"user_id,omitempty"`
	TicketID uint   `json:"ticket_id,omitempty"`
	Points   int64  `json:"points"`
	Reason   string `json:"reason,omitempty"`

	types.Timestamps
}
