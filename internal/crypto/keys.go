package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"

	"Picvault/internal/errors"
)

// MinKeyBits is the smallest accepted RSA key strength.
const MinKeyBits = 2048

// DefaultKeyBits is the key strength used when the caller does not ask for
// a specific one.
const DefaultKeyBits = 2048

// KeyPair is the live key pair used for container encrypt/decrypt/verify.
// Exactly one KeyPair exists process-wide once unlocked; it is absent while
// locked. It is passed to tasks at submission time, never looked up from
// ambient state.
type KeyPair struct {
	private *rsa.PrivateKey
}

// GenerateKeyPair creates a new RSA key pair of the requested strength.
// Zero selects DefaultKeyBits; strengths below MinKeyBits are rejected.
func GenerateKeyPair(bits int) (*KeyPair, error) {
	if bits == 0 {
		bits = DefaultKeyBits
	}
	if bits < MinKeyBits {
		return nil, errors.New("key strength below minimum")
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.Wrap(err, "generating key pair")
	}
	return &KeyPair{private: priv}, nil
}

// Public returns the public half of the pair.
func (k *KeyPair) Public() *rsa.PublicKey {
	return &k.private.PublicKey
}

// Bits returns the key strength.
func (k *KeyPair) Bits() int {
	return k.private.N.BitLen()
}

// WrapKey encrypts a symmetric file key to the pair's public key
// (RSA-OAEP with SHA-256).
func (k *KeyPair) WrapKey(fileKey []byte) ([]byte, error) {
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, k.Public(), fileKey, nil)
	if err != nil {
		return nil, errors.Wrap(err, "wrapping file key")
	}
	return wrapped, nil
}

// UnwrapKey recovers a symmetric file key wrapped with WrapKey.
func (k *KeyPair) UnwrapKey(wrapped []byte) ([]byte, error) {
	fileKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, k.private, wrapped, nil)
	if err != nil {
		return nil, errors.ErrNotContainer
	}
	return fileKey, nil
}

// Sign produces an RSA-PSS signature over the SHA-256 digest of data.
func (k *KeyPair) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPSS(rand.Reader, k.private, crypto.SHA256, digest[:], nil)
	if err != nil {
		return nil, errors.Wrap(err, "signing")
	}
	return sig, nil
}

// Verify checks an RSA-PSS signature over data against the pair's public
// key. A mismatch is reported as errors.ErrVerifyFailed.
func (k *KeyPair) Verify(data, sig []byte) error {
	digest := sha256.Sum256(data)
	if err := rsa.VerifyPSS(k.Public(), crypto.SHA256, digest[:], sig, nil); err != nil {
		return errors.ErrVerifyFailed
	}
	return nil
}
