package passes

import "time"

// Payment states carried by a completion event.
const (
	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"
)

// CompletionEvent is the verified, provider-neutral view of a finished
// checkout session.
type CompletionEvent struct {
	EventID         string
	EventType       string
	SessionID       string
	PaymentIntentID string
	PaymentStatus   string

	CustomerEmail string
	CustomerPhone string
	CustomerName  string

	AmountTotal int64
	Currency    string

	// Raw checkout metadata written by the storefront.
	PassType     string
	StartDate    string
	ValidityDays string
	Mobile       string
	HolderName   string
}

// IssueRequest is what the pass issuer needs to mint a pass.
type IssueRequest struct {
	PassID     string
	SessionID  string
	HolderName string
	Email      string
	Phone      string
	Tier       string
	Expiry     time.Time
}

// IssuedPass is the issuer's answer.
type IssuedPass struct {
	IssuerID string
	LinkURL  string
}
