package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// LookupKeyLength is the length of a hex-encoded SHA-256 digest.
const LookupKeyLength = sha256.Size * 2

// LookupKey derives the storage address of a wrapped data key from the serialized KEK.
// The mapping is deterministic, so the same KEK always resolves to the same record.
func LookupKey(kek []byte) string {
	sum := sha256.Sum256(kek)
	return hex.EncodeToString(sum[:])
}

// ValidateLookupKey reports whether s is a lowercase hex SHA-256 digest.
// Stores rely on this to keep caller input out of file paths and key patterns.
func ValidateLookupKey(s string) error {
	if len(s) != LookupKeyLength {
		return ErrInvalidLookupKey
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return ErrInvalidLookupKey
		}
	}
	return nil
}
