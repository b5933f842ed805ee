package store

import (
	"context"
	"sync"

	"ers/src/models"
	"ers/src/types"

	"github.com/google/uuid"
)

// MemoryStore keeps every record in process memory. It backs tests and local
// runs without postgres, and enforces the same uniqueness constraints the
// database schema does (ticket number, transaction-to-ticket mapping).
type MemoryStore struct {
	mu sync.Mutex

	events        map[uint]*models.Event
	registrations map[uuid.UUID]*models.Registration
	transactions  map[uuid.UUID]*models.Transaction
	tickets       map[uint]*models.Ticket
	rewards       []models.Reward
	users         map[uint]*models.User

	ticketNumbers map[string]uint
	ticketByTxn   map[uuid.UUID]uint

	nextTicketID uint
	nextUserID   uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:        make(map[uint]*models.Event),
		registrations: make(map[uuid.UUID]*models.Registration),
		transactions:  make(map[uuid.UUID]*models.Transaction),
		tickets:       make(map[uint]*models.Ticket),
		users:         make(map[uint]*models.User),
		ticketNumbers: make(map[string]uint),
		ticketByTxn:   make(map[uuid.UUID]uint),
	}
}

// SeedEvent registers an event snapshot for lookup by FindEvent.
func (s *MemoryStore) SeedEvent(event *models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = event
}

func (s *MemoryStore) CreatePendingRegistration(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	reg.Status = types.REGISTRATION_PENDING
	cp := *reg
	s.registrations[reg.ID] = &cp
	return nil
}

func (s *MemoryStore) AttachTransaction(_ context.Context, regID uuid.UUID, txn *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[regID]
	if !ok {
		return ErrNotFound
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.RegistrationID = regID
	cp := *txn
	s.transactions[txn.ID] = &cp
	id := txn.ID
	reg.TransactionID = &id
	return nil
}

func (s *MemoryStore) CreateTicket(_ context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.ticketNumbers[ticket.TicketNumber]; taken {
		return ErrDuplicateTicket
	}
	if _, taken := s.ticketByTxn[ticket.TransactionID]; taken {
		return ErrDuplicateTicket
	}
	s.nextTicketID++
	ticket.ID = s.nextTicketID
	cp := *ticket
	s.tickets[ticket.ID] = &cp
	s.ticketNumbers[ticket.TicketNumber] = ticket.ID
	s.ticketByTxn[ticket.TransactionID] = ticket.ID
	if reg, ok := s.registrations[ticket.RegistrationID]; ok {
		reg.Status = types.REGISTRATION_CONFIRMED
	}
	s.rewards = append(s.rewards, models.Reward{
		ID:       uint(len(s.rewards) + 1),
		UserID:   ticket.UserID,
		TicketID: ticket.ID,
		Points:   ticket.Price.IntPart(),
		Reason:   "ticket purchase",
	})
	return nil
}

func (s *MemoryStore) UpdateRegistrationStatus(_ context.Context, id uuid.UUID, status types.RegistrationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[id]
	if !ok {
		return ErrNotFound
	}
	reg.Status = status
	return nil
}

func (s *MemoryStore) FindEvent(_ context.Context, id uint) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *event
	return &cp, nil
}

func (s *MemoryStore) ListPublishedEvents(_ context.Context) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		if e.Status == types.EVENT_PUBLISHED {
			events = append(events, *e)
		}
	}
	return events, nil
}

func (s *MemoryStore) ListTicketsByUser(_ context.Context, userID uint) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tickets := make([]models.Ticket, 0)
	for _, t := range s.tickets {
		if t.UserID == userID {
			tickets = append(tickets, *t)
		}
	}
	return tickets, nil
}

func (s *MemoryStore) FindTicket(_ context.Context, id uint, userID uint) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) UpdateTicketStatus(_ context.Context, id uint, from, to types.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok || t.Status != from {
		return ErrNotFound
	}
	t.Status = to
	return nil
}

func (s *MemoryStore) ListRewardsByUser(_ context.Context, userID uint) ([]models.Reward, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rewards := make([]models.Reward, 0)
	var total int64
	for _, r := range s.rewards {
		if r.UserID == userID {
			rewards = append(rewards, r)
			total += r.Points
		}
	}
	return rewards, total, nil
}

func (s *MemoryStore) FindOrCreateUser(_ context.Context, email, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	s.nextUserID++
	user := &models.User{ID: s.nextUserID, Email: email, Name: name}
	s.users[user.ID] = user
	cp := *user
	return &cp, nil
}

func (s *MemoryStore) SettleTransaction(_ context.Context, referenceID string, status types.TransactionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txn := range s.transactions {
		if txn.ReferenceID == referenceID {
			txn.Status = status
			if status == types.TRANSACTION_CANCELED {
				if reg, ok := s.registrations[txn.RegistrationID]; ok && reg.Status == types.REGISTRATION_PENDING {
					reg.Status = types.REGISTRATION_CANCELLED
				}
			}
			return nil
		}
	}
	return ErrNotFound
}

// Registration returns a copy of a stored registration, for assertions.
func (s *MemoryStore) Registration(id uuid.UUID) (models.Registration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[id]
	if !ok {
		return models.Registration{}, false
	}
	return *reg, true
}

// TicketCount reports how many tickets have been persisted.
func (s *MemoryStore) TicketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}
