package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider identifies a payment provider implementation.
type Provider string

const (
	ProviderStellar Provider = "stellar"
	ProviderStripe  Provider = "stripe"
)

// Request carries everything a provider needs to initiate a payment. Amount
// is taken from the tier snapshot, never from client-editable state.
type Request struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	EventID     uint            `json:"event_id"`
	EventName   string          `json:"event_name"`
	TicketType  string          `json:"ticket_type"`
	PayerEmail  string          `json:"payer_email"`
	ReferenceID string          `json:"reference_id"`
}

// Result reports the outcome of a payment initiation. Success means
// initiated/authorized, not settled; settlement confirmation arrives out of
// band (webhook or chain watcher).
type Result struct {
	Success       bool    `json:"success"`
	TransactionID string  `json:"transaction_id,omitempty"`
	TxHash        *string `json:"tx_hash,omitempty"`
	Blockchain    *string `json:"blockchain,omitempty"`
	Method        string  `json:"method,omitempty"`
	Err           string  `json:"error,omitempty"`
}

// Gateway is the payment initiation contract consumed by the registration
// workflow. Implementations must be safe for concurrent use.
type Gateway interface {
	Provider() Provider
	Initiate(ctx context.Context, req *Request) (*Result, error)
}
