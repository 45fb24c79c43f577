package core

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// DigestSize is the size in bytes of a target digest.
const DigestSize = sha256.Size

// TargetDigest is the stored SHA-256 digest of the true password. It is
// supplied at session configuration time and never mutated.
type TargetDigest [DigestSize]byte

// String returns the hex encoding of the digest.
func (d TargetDigest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is unset.
func (d TargetDigest) IsZero() bool {
	return d == TargetDigest{}
}

// ParseTargetDigest decodes a hex-encoded SHA-256 digest. An empty string
// fails with ErrMissingTargetDigest, anything that is not exactly
// DigestSize bytes of hex with ErrInvalidTargetDigest.
func ParseTargetDigest(s string) (TargetDigest, error) {
	if s == "" {
		return TargetDigest{}, ErrMissingTargetDigest
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return TargetDigest{}, fmt.Errorf("%w: %v", ErrInvalidTargetDigest, err)
	}
	if len(raw) != DigestSize {
		return TargetDigest{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidTargetDigest, len(raw), DigestSize)
	}

	var d TargetDigest
	copy(d[:], raw)
	return d, nil
}

// DigestCandidate computes the digest of a candidate's canonical string.
func DigestCandidate(candidate string) TargetDigest {
	return sha256.Sum256([]byte(candidate))
}

// Verify reports whether the digest of the candidate's canonical string
// equals the target. The comparison covers the full digest and runs in
// constant time. Any candidate, including the empty string, is a valid
// input.
func Verify(candidate string, target TargetDigest) bool {
	computed := DigestCandidate(candidate)
	return subtle.ConstantTimeCompare(computed[:], target[:]) == 1
}
