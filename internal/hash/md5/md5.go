// Package md5 provides the digest used for fallback listing identities.
package md5

import (
	"crypto/md5" //nolint:gosec // identity key, not a security boundary
	"encoding/hex"
)

// Hasher computes hex MD5 digests.
type Hasher struct{}

// New returns an MD5 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:]), nil
}
