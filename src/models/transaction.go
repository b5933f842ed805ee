package models

import (
	"ers/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	RegistrationID uuid.UUID               `gorm:"type:uuid" json:"registration_id,omitempty"`
	Provider       string                  `json:"provider,omitempty"`
	ReferenceID    string                  `gorm:"index" json:"reference_id,omitempty"`
	Amount         decimal.Decimal         `gorm:"type:numeric(10,2)" json:"amount"`
	Currency       string                  `json:"currency,omitempty"`
	TxHash         *string                 `json:"tx_hash,omitempty"`
	Status         types.TransactionStatus `gorm:"default:'pending'" json:"status,omitempty"`
	Metadata       types.JSONB             `gorm:"type:jsonb" json:"metadata,omitempty"`

	types.Timestamps
}
