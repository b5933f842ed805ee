package wizard

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"ers/src/gateway"
	"ers/src/models"
	"ers/src/types"

	"github.com/google/uuid"
)

const ticketNumberSuffixLen = 6

// NewTicketNumber builds a human-presentable ticket number in the form
// TIX-<base36 millis>-<random suffix>. Collisions are unlikely but possible;
// callers retry on a store uniqueness rejection with a fresh number.
func NewTicketNumber() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return "TIX-" + ts + "-" + randomSuffix(ticketNumberSuffixLen)
}

const suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomSuffix(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(suffixAlphabet)))
	for i := range b {
		r, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = suffixAlphabet[0]
			continue
		}
		b[i] = suffixAlphabet[r.Int64()]
	}
	return string(b)
}

// Materialize turns a confirmed payment and draft into the final ticket
// record. Tier and event fields are copied in as snapshots so later edits to
// either never alter an issued ticket. Status always starts as upcoming.
func Materialize(
	draft *Draft,
	tier *models.TicketTier,
	event *models.Event,
	payment *gateway.Result,
	userID uint,
	registrationID uuid.UUID,
	transactionID uuid.UUID,
) *models.Ticket {
	return &models.Ticket{
		TicketNumber:   NewTicketNumber(),
		RegistrationID: registrationID,
		TransactionID:  transactionID,
		UserID:         userID,
		EventID:        event.ID,
		EventName:      event.Title,
		Date:           event.DateTime.Format("2006-01-02"),
		Time:           event.DateTime.Format("15:04"),
		Location:       event.Location,
		Image:          event.Image,
		TicketType:     tier.Name,
		Price:          tier.Price,
		Currency:       tier.Currency,
		Status:         types.TICKET_UPCOMING,
		PaymentMethod:  payment.Method,
		TxHash:         payment.TxHash,
		Blockchain:     payment.Blockchain,
		PurchaseDate:   time.Now().UTC(),
	}
}
