package wizard

import (
	"regexp"
	"testing"
	"time"

	"ers/src/gateway"
	"ers/src/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ticketNumberPattern = regexp.MustCompile(`^TIX-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestNewTicketNumberFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		n := NewTicketNumber()
		assert.Regexp(t, ticketNumberPattern, n)
		assert.False(t, seen[n], "generated numbers should not repeat in-process")
		seen[n] = true
	}
}

func TestMaterializeSnapshotsTierAndEvent(t *testing.T) {
	event := testEvent()
	event.DateTime = time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC)
	tier := &event.Tiers[0]

	txHash := "tx_abc"
	chain := "stellar"
	payment := &gateway.Result{
		Success:       true,
		TransactionID: "stx_abc",
		TxHash:        &txHash,
		Blockchain:    &chain,
		Method:        "stellar",
	}

	draft := &Draft{}
	regID := uuid.New()
	txnID := uuid.New()
	ticket := Materialize(draft, tier, event, payment, 42, regID, txnID)

	assert.Regexp(t, ticketNumberPattern, ticket.TicketNumber)
	assert.Equal(t, regID, ticket.RegistrationID)
	assert.Equal(t, txnID, ticket.TransactionID)
	assert.Equal(t, uint(42), ticket.UserID)
	assert.Equal(t, "Blockchain Summit 2026", ticket.EventName)
	assert.Equal(t, "2026-09-12", ticket.Date)
	assert.Equal(t, "18:30", ticket.Time)
	assert.Equal(t, "Moscone Center", ticket.Location)
	assert.Equal(t, "VIP Access", ticket.TicketType)
	assert.True(t, decimal.NewFromInt(299).Equal(ticket.Price))
	assert.Equal(t, "USD", ticket.Currency)
	assert.Equal(t, types.TICKET_UPCOMING, ticket.Status)
	assert.Equal(t, "stellar", ticket.PaymentMethod)
	require.NotNil(t, ticket.TxHash)
	assert.Equal(t, "tx_abc", *ticket.TxHash)
	assert.WithinDuration(t, time.Now().UTC(), ticket.PurchaseDate, time.Minute)

	// later tier edits must not leak into the issued ticket
	tier.Name = "Renamed"
	tier.Price = decimal.NewFromInt(1)
	assert.Equal(t, "VIP Access", ticket.TicketType)
	assert.True(t, decimal.NewFromInt(299).Equal(ticket.Price))
}

func TestMaterializeOffChainPayment(t *testing.T) {
	event := testEvent()
	event.DateTime = time.Now()
	payment := &gateway.Result{Success: true, TransactionID: "pi_123", Method: "stripe"}
	ticket := Materialize(&Draft{}, &event.Tiers[0], event, payment, 1, uuid.New(), uuid.New())
	assert.Nil(t, ticket.TxHash)
	assert.Nil(t, ticket.Blockchain)
	assert.Equal(t, "stripe", ticket.PaymentMethod)
}

func TestSessionSweeperDoesNotBlockHeldSessions(t *testing.T) {
	r := NewRegistry(2 * time.Second)
	defer r.Close()

	w := New(testConfig(nil, nil))
	s := r.Create(42, 1, w)

	// hold the session lock across a sweep tick, the way a handler does for
	// the duration of a slow payment initiation
	s.Lock()
	time.Sleep(1200 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		r.Delete(s.ID)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("registry operation blocked while a session lock was held")
	}
	s.Unlock()

	_, ok := r.Get(s.ID, 42)
	assert.False(t, ok)
}

func TestSessionRegistry(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	w := New(testConfig(nil, nil))
	s := r.Create(42, 1, w)
	require.NotEmpty(t, s.ID)

	got, ok := r.Get(s.ID, 42)
	require.True(t, ok)
	assert.Same(t, w, got.Wizard)

	// sessions are owner-scoped
	_, ok = r.Get(s.ID, 7)
	assert.False(t, ok)

	r.Delete(s.ID)
	_, ok = r.Get(s.ID, 42)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}
