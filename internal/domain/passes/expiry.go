package passes

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LocalZone is the venue civil time (UTC+5:30). Start dates and expiry are
// interpreted here regardless of the server's own zone.
var LocalZone = time.FixedZone("UTC+05:30", 5*60*60+30*60)

const dateLayout = "2006-01-02"

// ParseStartDate parses a YYYY-MM-DD calendar date to local midnight.
func ParseStartDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: start_date missing", ErrInvalidMetadata)
	}
	d, err := time.ParseInLocation(dateLayout, raw, LocalZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start_date %q: %v", ErrInvalidMetadata, raw, err)
	}
	return d, nil
}

// ParseValidityDays parses the validity_days metadata value.
func ParseValidityDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: validity_days missing", ErrInvalidMetadata)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: validity_days %q is not a number", ErrInvalidMetadata, raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: validity_days %d must be positive", ErrInvalidMetadata, n)
	}
	return n, nil
}

// ComputeExpiry returns the last instant (23:59:59.999 local) of the
// validityDays-th day counted from start, start itself being day one.
func ComputeExpiry(start time.Time, validityDays int) (time.Time, error) {
	if validityDays <= 0 {
		return time.Time{}, fmt.Errorf("%w: validity_days %d must be positive", ErrInvalidMetadata, validityDays)
	}
	y, m, d := start.In(LocalZone).Date()
	return time.Date(y, m, d+validityDays-1, 23, 59, 59, int(999*time.Millisecond), LocalZone), nil
}

// FormatDate renders t as a local calendar date.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(LocalZone).Format(dateLayout)
}
