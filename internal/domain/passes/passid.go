package passes

import (
	"crypto/sha256"
	"encoding/hex"
)

// PassIDLength is the number of hex characters kept from the digest.
const PassIDLength = 16

// DerivePassID maps a checkout session id to the public pass identifier.
// The mapping is stable so re-issuing for the same session reaches the same
// pass at the issuer, and one-way so the session id never leaks through a
// verification URL.
func DerivePassID(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])[:PassIDLength]
}
