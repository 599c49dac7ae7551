package stripe

import (
	"context"
	"fmt"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/paymentintent"
)

// ReceiptFinder looks up the hosted receipt of a payment's latest charge.
type ReceiptFinder struct {
	intents *paymentintent.Client
}

func NewReceiptFinder(secretKey string) *ReceiptFinder {
	return &ReceiptFinder{
		intents: &paymentintent.Client{B: stripego.GetBackend(stripego.APIBackend), Key: secretKey},
	}
}

func (f *ReceiptFinder) ReceiptURL(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := f.intents.Get(paymentIntentID, params)
	if err != nil {
		return "", fmt.Errorf("fetch payment intent %s: %w", paymentIntentID, err)
	}
	if pi.LatestCharge == nil || pi.LatestCharge.ReceiptURL == "" {
		return "", fmt.Errorf("payment intent %s has no receipt", paymentIntentID)
	}
	return pi.LatestCharge.ReceiptURL, nil
}
