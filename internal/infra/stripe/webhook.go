package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	"pass-app/internal/domain/passes"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

// Event types that finalize a purchase.
const (
	EventCheckoutCompleted             = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// Verifier checks Stripe-Signature headers against the endpoint secret.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify authenticates payload exactly as received and only then decodes it.
func (v *Verifier) Verify(payload []byte, sigHeader string) (stripego.Event, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		sigHeader,
		v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return stripego.Event{}, fmt.Errorf("%w: %v", passes.ErrSignatureInvalid, err)
	}
	return event, nil
}

// IsCompletion reports whether the event type finalizes a purchase.
func IsCompletion(eventType string) bool {
	return eventType == EventCheckoutCompleted || eventType == EventCheckoutAsyncPaymentSucceeded
}

// CompletionFromEvent decodes the checkout session carried by a verified
// completion event.
func CompletionFromEvent(event stripego.Event) (passes.CompletionEvent, error) {
	if event.Data == nil {
		return passes.CompletionEvent{}, fmt.Errorf("%w: event %s has no data", passes.ErrInvalidMetadata, event.ID)
	}

	var sess stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return passes.CompletionEvent{}, fmt.Errorf("%w: parse session: %v", passes.ErrInvalidMetadata, err)
	}

	out := passes.CompletionEvent{
		EventID:       event.ID,
		EventType:     string(event.Type),
		SessionID:     sess.ID,
		PaymentStatus: NormalizePaymentStatus(string(sess.PaymentStatus)),
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
	}
	if string(event.Type) == EventCheckoutAsyncPaymentSucceeded {
		out.PaymentStatus = passes.PaymentPaid
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	if cd := sess.CustomerDetails; cd != nil {
		out.CustomerEmail = strings.TrimSpace(cd.Email)
		out.CustomerPhone = strings.TrimSpace(cd.Phone)
		out.CustomerName = strings.TrimSpace(cd.Name)
	}
	if out.CustomerEmail == "" {
		out.CustomerEmail = strings.TrimSpace(sess.CustomerEmail)
	}

	if md := sess.Metadata; md != nil {
		out.PassType = md["pass_type"]
		out.StartDate = md["start_date"]
		out.ValidityDays = md["validity_days"]
		out.Mobile = md["mobile"]
		out.HolderName = md["pass_holder_name"]
	}
	return out, nil
}
