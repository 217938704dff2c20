package crypto

import (
	"sync"
	"testing"

	"Picvault/internal/errors"
)

// Key generation is expensive; tests share one pair.
var (
	testKeyOnce sync.Once
	testKey     *KeyPair
	testKeyErr  error
)

func testKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	testKeyOnce.Do(func() {
		testKey, testKeyErr = GenerateKeyPair(0)
	})
	if testKeyErr != nil {
		t.Fatalf("generating key pair: %v", testKeyErr)
	}
	return testKey
}

func TestGenerateKeyPairEnforcesMinimum(t *testing.T) {
	kp := testKeyPair(t)
	if got := kp.Bits(); got < MinKeyBits {
		t.Errorf("Bits() = %d, want at least %d", got, MinKeyBits)
	}
	if _, err := GenerateKeyPair(512); err == nil {
		t.Error("GenerateKeyPair(512) succeeded, want error")
	}
}

func TestWrapUnwrapRoundtrip(t *testing.T) {
	kp := testKeyPair(t)
	fileKey, err := RandomBytes(32)
	if err != nil {
		t.Fatal(err)
	}
	wrapped, err := kp.WrapKey(fileKey)
	if err != nil {
		t.Fatal(err)
	}
	got, err := kp.UnwrapKey(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(fileKey) {
		t.Error("unwrapped key differs from original")
	}
}

func TestUnwrapGarbageFails(t *testing.T) {
	kp := testKeyPair(t)
	garbage := make([]byte, kp.Bits()/8)
	if _, err := kp.UnwrapKey(garbage); !errors.Is(err, errors.ErrNotContainer) {
		t.Errorf("UnwrapKey(garbage) = %v, want ErrNotContainer", err)
	}
}

func TestSignVerify(t *testing.T) {
	kp := testKeyPair(t)
	data := []byte("authenticated payload")
	sig, err := kp.Sign(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := kp.Verify(data, sig); err != nil {
		t.Errorf("Verify(valid signature) = %v", err)
	}
	data[0] ^= 1
	if err := kp.Verify(data, sig); !errors.Is(err, errors.ErrVerifyFailed) {
		t.Errorf("Verify(tampered data) = %v, want ErrVerifyFailed", err)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := RandomBytes(SaltSize)
	if err != nil {
		t.Fatal(err)
	}
	k1, err := DeriveKey([]byte("password"), salt)
	if err != nil {
		t.Fatal(err)
	}
	k2, err := DeriveKey([]byte("password"), salt)
	if err != nil {
		t.Fatal(err)
	}
	if string(k1) != string(k2) {
		t.Error("same password and salt derived different keys")
	}
	k3, err := DeriveKey([]byte("other"), salt)
	if err != nil {
		t.Fatal(err)
	}
	if string(k1) == string(k3) {
		t.Error("different passwords derived the same key")
	}
}
