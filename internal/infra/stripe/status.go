package stripe

import (
	"strings"

	"pass-app/internal/domain/passes"
)

// NormalizePaymentStatus maps a checkout session payment_status onto the two
// states the reconciler cares about. Only an explicit "unpaid" (delayed
// payment methods) holds side effects back.
func NormalizePaymentStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "unpaid":
		return passes.PaymentUnpaid
	default: // "paid", "no_payment_required", or absent
		return passes.PaymentPaid
	}
}
