package rating

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

var ErrInvalidSession = errors.New("invalid session token")

// Session tokens are anonymous dedup keys, not identities. Clients persist
// them locally and send them back on every submission; the server never
// expires them. Format: sess_<unix millis>_<random suffix>.
var sessionPattern = regexp.MustCompile(`^sess_[0-9]{10,16}_[a-z0-9]{6,16}$`)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewSessionID issues a fresh session token.
func NewSessionID() (string, error) {
	suffix := make([]byte, 9)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(suffixAlphabet))))
		if err != nil {
			return "", fmt.Errorf("session suffix: %w", err)
		}
		suffix[i] = suffixAlphabet[n.Int64()]
	}
	return fmt.Sprintf("sess_%d_%s", time.Now().UnixMilli(), suffix), nil
}

// ValidateSessionID rejects tokens that do not match the constrained
// pattern. Malformed tokens fail here, before any storage round-trip.
func ValidateSessionID(sessionID string) error {
	if !sessionPattern.MatchString(sessionID) {
		return ErrInvalidSession
	}
	return nil
}
