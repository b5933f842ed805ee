package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ers/src/gateway"
	"ers/src/models"
	"ers/src/monitoring"
	"ers/src/store"
	"ers/src/types"

	"github.com/google/uuid"
)

// State names a position in the registration flow.
type State string

const (
	StatePersonalInfo State = "personal_info"
	StateExtras       State = "extras"
	StateConfirmation State = "confirmation"
	StateSubmitting   State = "submitting"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
	StateCancelled    State = "cancelled"
)

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateCancelled
}

// Config wires a wizard instance to its collaborators. Event and User are
// read-only snapshots for the duration of the flow; prices and availability
// are not re-fetched mid-flow.
type Config struct {
	Event *models.Event
	User  *models.User

	Store   store.RegistrationStore
	Gateway gateway.Gateway

	// MinTeamRows is the smallest number of team rows the extras step keeps
	// around while editing. Zero means the default of 1.
	MinTeamRows int
	// MaxMaterializeRetries bounds ticket-number regeneration on conflicts.
	// Zero means the default of 3.
	MaxMaterializeRetries int

	OnSuccess func(ticket *models.Ticket)
	OnCancel  func()
}

// Wizard drives the three-step registration flow as an explicit state
// machine. A wizard has no internal locking; callers serialize access, which
// the HTTP layer does through Session.
type Wizard struct {
	cfg   Config
	state State
	draft Draft

	registrationID uuid.UUID
	ticket         *models.Ticket
	lastErr        error

	// at most one terminal callback fires per instance
	callbackFired bool
}

// New builds a wizard in the personal-info step, prefilling contact details
// from the user profile when one is supplied.
func New(cfg Config) *Wizard {
	if cfg.MinTeamRows <= 0 {
		cfg.MinTeamRows = 1
	}
	if cfg.MaxMaterializeRetries <= 0 {
		cfg.MaxMaterializeRetries = 3
	}
	w := &Wizard{
		cfg:   cfg,
		state: StatePersonalInfo,
	}
	if cfg.User != nil {
		w.draft.Contact.Name = cfg.User.Name
		w.draft.Contact.Email = cfg.User.Email
	}
	w.draft.Extras.TeamMembers = make([]string, cfg.MinTeamRows)
	return w
}

func (w *Wizard) State() State {
	return w.state
}

// Draft returns a copy of the current draft for display.
func (w *Wizard) Draft() Draft {
	d := w.draft
	d.Extras.TeamMembers = append([]string(nil), w.draft.Extras.TeamMembers...)
	return d
}

// Err returns the failure that moved the wizard into StateFailed, if any.
func (w *Wizard) Err() error {
	return w.lastErr
}

// Ticket returns the materialized ticket after StateSucceeded.
func (w *Wizard) Ticket() *models.Ticket {
	return w.ticket
}

func (w *Wizard) setState(next State) {
	w.state = next
	monitoring.WizardTransitions.WithLabelValues(string(next)).Inc()
}

// Advance runs the current step's validation gate and moves forward on pass.
// On failure the wizard stays put and the draft is untouched.
func (w *Wizard) Advance() error {
	switch w.state {
	case StatePersonalInfo:
		if err := w.validatePersonalInfo(); err != nil {
			return err
		}
		w.setState(StateExtras)
	case StateExtras:
		// all extras are optional
		w.setState(StateConfirmation)
	default:
		return fmt.Errorf("cannot advance from %s", w.state)
	}
	return nil
}

// Retreat moves back one step without validating. From the first step it
// cancels the flow and fires OnCancel.
func (w *Wizard) Retreat() error {
	switch w.state {
	case StateConfirmation:
		w.setState(StateExtras)
	case StateExtras:
		w.setState(StatePersonalInfo)
	case StatePersonalInfo:
		w.setState(StateCancelled)
		w.fireCancel()
	default:
		return fmt.Errorf("cannot retreat from %s", w.state)
	}
	return nil
}

// UpdateField merges one field value into the draft. It never validates and
// is allowed in any editable state, so the confirmation summary stays
// editable.
func (w *Wizard) UpdateField(field string, value any) error {
	if w.state == StateSubmitting || w.state.Terminal() {
		return fmt.Errorf("draft is no longer editable in %s", w.state)
	}
	return w.draft.set(field, value)
}

// AddTeamMember appends an empty placeholder row.
func (w *Wizard) AddTeamMember() error {
	if w.state == StateSubmitting || w.state.Terminal() {
		return fmt.Errorf("draft is no longer editable in %s", w.state)
	}
	w.draft.Extras.TeamMembers = append(w.draft.Extras.TeamMembers, "")
	return nil
}

// UpdateTeamMember sets the display name of an existing row.
func (w *Wizard) UpdateTeamMember(index int, name string) error {
	if w.state == StateSubmitting || w.state.Terminal() {
		return fmt.Errorf("draft is no longer editable in %s", w.state)
	}
	if index < 0 || index >= len(w.draft.Extras.TeamMembers) {
		return fmt.Errorf("team member index out of range: %d", index)
	}
	w.draft.Extras.TeamMembers[index] = name
	return nil
}

// RemoveTeamMember drops a row, keeping at least MinTeamRows rows present.
func (w *Wizard) RemoveTeamMember(index int) error {
	if w.state == StateSubmitting || w.state.Terminal() {
		return fmt.Errorf("draft is no longer editable in %s", w.state)
	}
	members := w.draft.Extras.TeamMembers
	if index < 0 || index >= len(members) {
		return fmt.Errorf("team member index out of range: %d", index)
	}
	if len(members) <= w.cfg.MinTeamRows {
		return fmt.Errorf("at least %d team member row(s) must remain", w.cfg.MinTeamRows)
	}
	w.draft.Extras.TeamMembers = append(members[:index], members[index+1:]...)
	return nil
}

func (w *Wizard) validatePersonalInfo() error {
	var fields []FieldError
	if w.draft.Contact.Name == "" {
		fields = append(fields, FieldError{Field: "contact.name", Message: "name is required"})
	}
	if w.draft.Contact.Email == "" {
		fields = append(fields, FieldError{Field: "contact.email", Message: "email is required"})
	}
	if w.draft.Contact.Phone == "" {
		fields = append(fields, FieldError{Field: "contact.phone", Message: "phone is required"})
	}
	tier := w.cfg.Event.Tier(w.draft.TicketTierID)
	if tier == nil || !tier.Available {
		fields = append(fields, FieldError{Field: "ticket_tier_id", Message: "select an available ticket tier"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Retry returns a failed submission to the confirmation step with the draft
// intact.
func (w *Wizard) Retry() error {
	if w.state != StateFailed {
		return fmt.Errorf("cannot retry from %s", w.state)
	}
	w.lastErr = nil
	w.setState(StateConfirmation)
	return nil
}

// Submit runs the three-stage pipeline: persist a pending registration,
// initiate payment against the tier snapshot price, then materialize the
// ticket. Each stage awaits the previous one. A retry after failure is a
// fresh attempt and may produce a different transaction outcome.
func (w *Wizard) Submit(ctx context.Context) error {
	if w.state != StateConfirmation && w.state != StateFailed {
		return fmt.Errorf("cannot submit from %s", w.state)
	}
	if !w.draft.AgreedToTerms {
		return &ValidationError{Fields: []FieldError{
			{Field: "agreed_to_terms", Message: "terms must be accepted"},
		}}
	}
	tier := w.cfg.Event.Tier(w.draft.TicketTierID)
	if tier == nil || !tier.Available {
		return &ValidationError{Fields: []FieldError{
			{Field: "ticket_tier_id", Message: "select an available ticket tier"},
		}}
	}
	w.setState(StateSubmitting)

	var userID uint
	if w.cfg.User != nil {
		userID = w.cfg.User.ID
	}
	reg := &models.Registration{
		UserID:              userID,
		EventID:             w.cfg.Event.ID,
		TicketTierID:        tier.ID,
		ContactName:         w.draft.Contact.Name,
		ContactEmail:        w.draft.Contact.Email,
		ContactPhone:        w.draft.Contact.Phone,
		DietaryRestrictions: w.draft.Extras.DietaryRestrictions,
		TeamMembers:         types.StringSlice(w.draft.FilteredTeamMembers()),
	}
	if err := w.cfg.Store.CreatePendingRegistration(ctx, reg); err != nil {
		return w.fail(&PersistenceUnavailableError{Op: "create registration", Err: err})
	}
	w.registrationID = reg.ID

	res, err := w.cfg.Gateway.Initiate(ctx, &gateway.Request{
		Amount:      tier.Price, // snapshot price, never client input
		Currency:    tier.Currency,
		EventID:     w.cfg.Event.ID,
		EventName:   w.cfg.Event.Title,
		TicketType:  tier.Name,
		PayerEmail:  w.draft.Contact.Email,
		ReferenceID: reg.ID.String(),
	})
	provider := string(w.cfg.Gateway.Provider())
	if err != nil || !res.Success {
		reason := "payment declined"
		if err != nil {
			reason = err.Error()
		} else if res.Err != "" {
			reason = res.Err
		}
		monitoring.PaymentInitiations.WithLabelValues(provider, "failed").Inc()
		return w.fail(&PaymentInitiationError{Provider: provider, Reason: reason})
	}
	monitoring.PaymentInitiations.WithLabelValues(provider, "initiated").Inc()

	txn := &models.Transaction{
		ID:          uuid.New(),
		Provider:    provider,
		ReferenceID: res.TransactionID,
		Amount:      tier.Price,
		Currency:    tier.Currency,
		TxHash:      res.TxHash,
		Status:      types.TRANSACTION_PENDING,
		Metadata: types.JSONB{
			"event_id":    w.cfg.Event.ID,
			"event_name":  w.cfg.Event.Title,
			"ticket_type": tier.Name,
			"payer_email": w.draft.Contact.Email,
		},
	}
	if err := w.cfg.Store.AttachTransaction(ctx, reg.ID, txn); err != nil {
		return w.fail(&PersistenceUnavailableError{Op: "attach transaction", Err: err})
	}

	ticket := Materialize(&w.draft, tier, w.cfg.Event, res, userID, reg.ID, txn.ID)
	for attempt := 1; ; attempt++ {
		err := w.cfg.Store.CreateTicket(ctx, ticket)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicateTicket) {
			if attempt >= w.cfg.MaxMaterializeRetries {
				return w.fail(&PersistenceConflictError{Attempts: attempt})
			}
			monitoring.TicketConflictRetries.Inc()
			log.Printf("Ticket number collision on [%s], regenerating\n", ticket.TicketNumber)
			ticket.TicketNumber = NewTicketNumber()
			continue
		}
		return w.fail(&PersistenceUnavailableError{Op: "create ticket", Err: err})
	}

	w.ticket = ticket
	w.setState(StateSucceeded)
	monitoring.SubmissionsTotal.WithLabelValues("succeeded").Inc()
	w.fireSuccess(ticket)
	return nil
}

func (w *Wizard) fail(err error) error {
	w.lastErr = err
	w.setState(StateFailed)
	monitoring.SubmissionsTotal.WithLabelValues("failed").Inc()
	log.Printf("Registration submission failed: %s\n", err.Error())
	return err
}

func (w *Wizard) fireSuccess(ticket *models.Ticket) {
	if w.callbackFired {
		return
	}
	w.callbackFired = true
	if w.cfg.OnSuccess != nil {
		w.cfg.OnSuccess(ticket)
	}
}

func (w *Wizard) fireCancel() {
	if w.callbackFired {
		return
	}
	w.callbackFired = true
	if w.cfg.OnCancel != nil {
		w.cfg.OnCancel()
	}
}
