// Package cryptox holds the content digests the client records on upload
// and checks on download.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/sha3"
)

// DigestSize is the length of a content digest in bytes.
const DigestSize = 32

const fingerprintBytes = 6

// NewDigest returns a SHA3-256 hash for file contents.
func NewDigest() hash.Hash {
	return sha3.New256()
}

// Sum is the digest of data.
func Sum(data []byte) []byte {
	sum := sha3.Sum256(data)
	return sum[:]
}

// Equal compares two digests in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Fingerprint is a short hex prefix of d for display, or "" for an empty digest.
func Fingerprint(d []byte) string {
	if len(d) == 0 {
		return ""
	}
	return hex.EncodeToString(d[:min(len(d), fingerprintBytes)])
}
