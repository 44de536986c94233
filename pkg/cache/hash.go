package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Digest returns a short, stable 16-character hex digest of parts. It names
// staging directories and other throwaway paths where collisions only cost
// a re-fetch.
func Digest(parts ...string) string {
	sum := xxhash.Sum64String(strings.Join(parts, "\x00"))
	s := strconv.FormatUint(sum, 16)
	return strings.Repeat("0", 16-len(s)) + s
}
