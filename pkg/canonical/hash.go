package canonical

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes the hex-encoded SHA-256 digest of a canonical payload.
// The full payload is always hashed; truncation would silently weaken the
// integrity guarantee auditors rely on.
func Hash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// HashAnswers canonicalizes an answer payload and returns both the
// canonical bytes and their digest.
func HashAnswers(answers map[string]any) (payload []byte, digest string, err error) {
	payload, err = Canonicalize(answers)
	if err != nil {
		return nil, "", err
	}
	return payload, Hash(payload), nil
}
