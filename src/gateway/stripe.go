package gateway

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

// StripeGateway initiates card payments by creating a PaymentIntent. The
// intent id becomes the workflow's transaction reference; settlement is
// confirmed later by the Stripe webhook.
type StripeGateway struct {
	sc *stripe.Client
}

func NewStripeGateway(sc *stripe.Client) *StripeGateway {
	return &StripeGateway{sc: sc}
}

func (g *StripeGateway) Provider() Provider {
	return ProviderStripe
}

func (g *StripeGateway) Initiate(ctx context.Context, req *Request) (*Result, error) {
	minor := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()
	params := &stripe.PaymentIntentCreateParams{
		Amount:       stripe.Int64(minor),
		Currency:     stripe.String(req.Currency),
		ReceiptEmail: stripe.String(req.PayerEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"requestId": req.ReferenceID,
			"eventName": req.EventName,
			"ticket":    req.TicketType,
		},
	}
	pi, err := g.sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		log.Printf("[stripe] Error creating PaymentIntent: %s\n", err.Error())
		return &Result{Success: false, Err: err.Error()}, nil
	}
	return &Result{
		Success:       true,
		TransactionID: pi.ID,
		Method:        string(ProviderStripe),
	}, nil
}
