package lib

import (
	"context"
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// CreatePaymentIntent opens an intent for a booking total. Amount is in the
// currency's smallest unit.
func CreatePaymentIntent(amount int64, currency string, meta map[string]string) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	params := stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: meta,
	}
	return sc.V1PaymentIntents.Create(context.Background(), &params)
}

// CancelPaymentIntent releases an intent for a cancelled booking.
func CancelPaymentIntent(intentId string) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	return sc.V1PaymentIntents.Cancel(context.Background(), intentId, nil)
}
