package wizard

import (
	"fmt"
	"strings"
)

// FieldError points a validation message at a specific draft field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the field-level failures of a step gate. It never
// leaves the wizard boundary as anything other than messages to correct.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// PaymentInitiationError reports a declined or timed-out payment initiation.
// The draft survives it; the user may submit again.
type PaymentInitiationError struct {
	Provider string
	Reason   string
}

func (e *PaymentInitiationError) Error() string {
	return fmt.Sprintf("payment initiation failed (%s): %s", e.Provider, e.Reason)
}

// PersistenceConflictError means ticket creation kept colliding on unique
// constraints after the retry budget was spent.
type PersistenceConflictError struct {
	Attempts int
}

func (e *PersistenceConflictError) Error() string {
	return fmt.Sprintf("ticket creation conflicted %d times", e.Attempts)
}

// PersistenceUnavailableError wraps a non-conflict store failure. Retryable;
// no ticket is ever left confirmed behind it.
type PersistenceUnavailableError struct {
	Op  string
	Err error
}

func (e *PersistenceUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %s", e.Op, e.Err.Error())
}

func (e *PersistenceUnavailableError) Unwrap() error {
	return e.Err
}
