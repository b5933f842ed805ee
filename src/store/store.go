package store

import (
	"context"
	"errors"

	"ers/src/models"
	"ers/src/types"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateTicket is returned when the storage layer rejects a ticket
	// because its number or its transaction mapping already exists. Callers
	// may regenerate the ticket number and retry.
	ErrDuplicateTicket = errors.New("store: duplicate ticket")
	ErrNotFound        = errors.New("store: record not found")
	// ErrUnavailable covers transient failures (network, service down).
	ErrUnavailable = errors.New("store: unavailable")
)

// RegistrationStore persists the registration-to-ticket workflow records.
type RegistrationStore interface {
	CreatePendingRegistration(ctx context.Context, reg *models.Registration) error
	// AttachTransaction records the payment transaction and links it to the
	// registration before the ticket exists.
	AttachTransaction(ctx context.Context, regID uuid.UUID, txn *models.Transaction) error
	// CreateTicket persists the materialized ticket, confirms its
	// registration and credits reward points in one transaction. A duplicate
	// ticket number or transaction mapping yields ErrDuplicateTicket.
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status types.RegistrationStatus) error
}

type EventStore interface {
	FindEvent(ctx context.Context, id uint) (*models.Event, error)
	ListPublishedEvents(ctx context.Context) ([]models.Event, error)
}

type TicketStore interface {
	ListTicketsByUser(ctx context.Context, userID uint) ([]models.Ticket, error)
	FindTicket(ctx context.Context, id uint, userID uint) (*models.Ticket, error)
	// UpdateTicketStatus transitions a ticket only when its current status
	// matches from; otherwise ErrNotFound.
	UpdateTicketStatus(ctx context.Context, id uint, from, to types.TicketStatus) error
}

type RewardStore interface {
	ListRewardsByUser(ctx context.Context, userID uint) ([]models.Reward, int64, error)
}

type UserStore interface {
	FindOrCreateUser(ctx context.Context, email, name string) (*models.User, error)
}

type TransactionStore interface {
	// SettleTransaction updates a transaction found by gateway reference id.
	SettleTransaction(ctx context.Context, referenceID string, status types.TransactionStatus) error
}

type Store interface {
	RegistrationStore
	EventStore
	TicketStore
	RewardStore
	UserStore
	TransactionStore
}

var active Store

// GetStore returns the process-wide store, defaulting to the gorm-backed
// implementation.
func GetStore() Store {
	if active != nil {
		return active
	}
	active = NewGormStore()
	return active
}

// NewStore Replace store instance with custom implementation
func NewStore(s Store) Store {
	active = s
	return active
}
