package main

import (
	"encoding/json"
	"errors"
	"ers/src/store"
	"ers/src/types"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// stripeWebhookRoute settles card transactions out of band: a succeeded
// intent marks the transaction paid, a failed one cancels it and releases
// the pending registration.
func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "payment_intent.succeeded":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			if err := store.GetStore().SettleTransaction(ctx, pi.ID, types.TRANSACTION_PAID); err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					log.Printf("Error settling transaction [%s]: %s\n", pi.ID, err.Error())
					ctx.Status(http.StatusServiceUnavailable)
					return
				}
				log.Printf("No transaction found for PaymentIntent [%s]\n", pi.ID)
			}
		case "payment_intent.payment_failed":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			if err := store.GetStore().SettleTransaction(ctx, pi.ID, types.TRANSACTION_CANCELED); err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					log.Printf("Error cancelling transaction [%s]: %s\n", pi.ID, err.Error())
					ctx.Status(http.StatusServiceUnavailable)
					return
				}
				log.Printf("No transaction found for PaymentIntent [%s]\n", pi.ID)
			}
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}
