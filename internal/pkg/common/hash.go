package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the hex-encoded SHA-256 digest of data. Used as the
// dedup/cache key for uploaded documents and as the file_hash correlation
// value on stored recipes.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashString returns the hex-encoded SHA-256 digest of s.
func HashString(s string) string {
	return HashBytes([]byte(s))
}
