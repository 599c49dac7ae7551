package passes

import "strings"

// Purchase status values. The reconciler only moves along
// created -> paid -> issued -> email_sent; the remaining states are set
// by an administrator.
const (
	StatusCreated   = "created"
	StatusPaid      = "paid"
	StatusIssued    = "issued"
	StatusEmailSent = "email_sent"
	StatusSuspended = "suspended"
	StatusRefunded  = "refunded"
	StatusFailed    = "failed"
)

var happyPath = map[string]int{
	StatusCreated:   0,
	StatusPaid:      1,
	StatusIssued:    2,
	StatusEmailSent: 3,
}

// StatusesBefore lists the happy-path states that precede target.
func StatusesBefore(target string) []string {
	rank, ok := happyPath[target]
	if !ok {
		return nil
	}
	out := make([]string, 0, rank)
	for _, s := range []string{StatusCreated, StatusPaid, StatusIssued} {
		if happyPath[s] < rank {
			out = append(out, s)
		}
	}
	return out
}

// OnHappyPath is false for suspended, refunded, failed and unknown states.
func OnHappyPath(status string) bool {
	_, ok := happyPath[status]
	return ok
}

// Advanced reports whether current is at or beyond target on the happy path.
func Advanced(current, target string) bool {
	c, ok := happyPath[current]
	if !ok {
		return false
	}
	return c >= happyPath[target]
}

// IsAdminStatus lists the states an administrator may set by hand. paid is
// included so a suspension can be lifted.
func IsAdminStatus(s string) bool {
	switch strings.TrimSpace(s) {
	case StatusSuspended, StatusRefunded, StatusFailed, StatusPaid:
		return true
	}
	return false
}
