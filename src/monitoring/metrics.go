package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WizardTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ers_wizard_transitions_total",
		Help: "Registration wizard state transitions, labeled by target state.",
	}, []string{"to"})

	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ers_submissions_total",
		Help: "Registration submissions by outcome (succeeded, failed).",
	}, []string{"outcome"})

	PaymentInitiations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ers_payment_initiations_total",
		Help: "Payment initiation attempts by provider and result.",
	}, []string{"provider", "result"})

	TicketConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ers_ticket_number_conflicts_total",
		Help: "Ticket number collisions retried during materialization.",
	})
)
