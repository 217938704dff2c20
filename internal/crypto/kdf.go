package crypto

import (
	"bytes"

	"golang.org/x/crypto/argon2"

	"Picvault/internal/errors"
)

// Argon2id parameters for the key file passphrase.
//
// CRITICAL: Parameters MUST NOT change or existing key files cannot be
// decrypted.
const (
	Argon2Passes  = 4
	Argon2Memory  = 1 << 16 // 64 MiB
	Argon2Threads = 4

	// Output key size (XChaCha20-Poly1305 key)
	Argon2KeySize = 32

	// SaltSize is the Argon2 salt length stored in the key file.
	SaltSize = 16
)

// DeriveKey derives the key-file encryption key from a passphrase and salt
// using Argon2id.
func DeriveKey(password, salt []byte) ([]byte, error) {
	key := argon2.IDKey(password, salt, Argon2Passes, Argon2Memory, Argon2Threads, Argon2KeySize)

	// Sanity check: key should not be all zeros
	if bytes.Equal(key, make([]byte, Argon2KeySize)) {
		return nil, errors.New("fatal crypto/argon2 error: produced zero key")
	}

	return key, nil
}
