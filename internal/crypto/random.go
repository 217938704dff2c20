// Package crypto provides the cryptographic primitives for Picvault:
// RSA key pair generation, the passphrase-protected key file at rest,
// Argon2id key derivation, and the asymmetric wrap/sign operations used
// by the container format.
package crypto

import (
	"crypto/rand"
	"fmt"
	"runtime"

	"Picvault/internal/errors"
)

// RandomBytes generates n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRandFailure, err)
	}

	// Sanity check: bytes should not be all zeros
	allZero := true
	for _, v := range b {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, fmt.Errorf("%w: produced zero bytes", errors.ErrRandFailure)
	}

	return b, nil
}

// SecureZero overwrites the slice with zeros in a way that is not
// optimized away. Used for passwords and derived keys once consumed.
func SecureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// SecureZeroMultiple zeros several slices.
func SecureZeroMultiple(slices ...[]byte) {
	for _, s := range slices {
		SecureZero(s)
	}
}
