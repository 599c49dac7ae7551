package passes

import "strings"

// Tier constants (single source of truth)
const (
	Tier15  = "pass_15"
	Tier30  = "pass_30"
	Tier90  = "pass_90"
	Tier365 = "pass_365"
)

var tierDays = map[string]int{
	Tier15:  15,
	Tier30:  30,
	Tier90:  90,
	Tier365: 365,
}

// NormalizeTier lower-cases and trims a tier coming from checkout metadata.
// ok is false when the value is not one of the sold tiers.
func NormalizeTier(raw string) (tier string, ok bool) {
	tier = strings.ToLower(strings.TrimSpace(raw))
	_, ok = tierDays[tier]
	return tier, ok
}

// TierDays returns the nominal validity of a tier, or 0 when unknown.
func TierDays(tier string) int {
	return tierDays[tier]
}

// TierLabel is the human form used in emails, e.g. "30-day pass".
func TierLabel(tier string) string {
	switch tier {
	case Tier15:
		return "15-day pass"
	case Tier30:
		return "30-day pass"
	case Tier90:
		return "90-day pass"
	case Tier365:
		return "365-day pass"
	case "":
		return "Standard"
	default:
		return tier
	}
}
