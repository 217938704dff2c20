package container

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"Picvault/internal/crypto"
	"Picvault/internal/errors"
)

var (
	testKeyOnce sync.Once
	testKey     *crypto.KeyPair
	testKeyErr  error
)

func testKeyPair(t *testing.T) *crypto.KeyPair {
	t.Helper()
	testKeyOnce.Do(func() {
		testKey, testKeyErr = crypto.GenerateKeyPair(0)
	})
	if testKeyErr != nil {
		t.Fatalf("generating key pair: %v", testKeyErr)
	}
	return testKey
}

func testMessage() *Message {
	msg := &Message{
		ContentType: "image/jpeg",
		Data:        []byte("jpeg bytes go here"),
	}
	msg.Add(HeaderOriginalPath, "/home/user/Pictures/cat.jpg")
	msg.Add(HeaderModificationTime, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Format(TimeFormat))
	msg.Add(HeaderOrientation, "90")
	msg.Add(HeaderTitle, "Cat")
	return msg
}

func TestContainerRoundtrip(t *testing.T) {
	kp := testKeyPair(t)
	var buf bytes.Buffer
	if err := Encrypt(&buf, testMessage(), kp); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := DecryptAndVerify(buf.Bytes(), kp)
	if err != nil {
		t.Fatalf("DecryptAndVerify: %v", err)
	}
	if got.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q", got.ContentType)
	}
	if string(got.Data) != "jpeg bytes go here" {
		t.Errorf("Data = %q", got.Data)
	}
	if got.Value(HeaderOriginalPath) != "/home/user/Pictures/cat.jpg" {
		t.Errorf("Original-Path = %q", got.Value(HeaderOriginalPath))
	}
	if got.Int(HeaderOrientation, 0) != 90 {
		t.Errorf("Orientation = %d", got.Int(HeaderOrientation, 0))
	}
	if mt, ok := got.ModTime(); !ok || !mt.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("ModTime = %v, %v", mt, ok)
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	kp := testKeyPair(t)
	other, err := crypto.GenerateKeyPair(0)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Encrypt(&buf, testMessage(), kp); err != nil {
		t.Fatal(err)
	}
	if _, err := DecryptAndVerify(buf.Bytes(), other); !errors.Is(err, errors.ErrNotContainer) {
		t.Errorf("DecryptAndVerify(wrong key) = %v, want ErrNotContainer", err)
	}
}

func TestDecryptTamperedFails(t *testing.T) {
	kp := testKeyPair(t)
	var buf bytes.Buffer
	if err := Encrypt(&buf, testMessage(), kp); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	data[len(data)-1] ^= 1
	if _, err := DecryptAndVerify(data, kp); err == nil {
		t.Error("DecryptAndVerify(tampered) succeeded")
	}
}

func TestDecryptGarbageFails(t *testing.T) {
	kp := testKeyPair(t)
	for _, data := range [][]byte{
		nil,
		[]byte("x"),
		[]byte("PVC1"),
		[]byte("random junk that is long enough to not be truncated early"),
	} {
		if _, err := DecryptAndVerify(data, kp); !errors.Is(err, errors.ErrNotContainer) {
			t.Errorf("DecryptAndVerify(%q) = %v, want ErrNotContainer", data, err)
		}
	}
}

func TestSniff(t *testing.T) {
	kp := testKeyPair(t)
	dir := t.TempDir()

	path, err := WriteEncrypted(dir, testMessage(), kp)
	if err != nil {
		t.Fatalf("WriteEncrypted: %v", err)
	}
	if !Sniff(path) {
		t.Error("Sniff(container) = false")
	}

	junk := filepath.Join(dir, "junk")
	if err := os.WriteFile(junk, []byte("definitely not a container"), 0o600); err != nil {
		t.Fatal(err)
	}
	if Sniff(junk) {
		t.Error("Sniff(junk) = true")
	}
	if Sniff(filepath.Join(dir, "missing")) {
		t.Error("Sniff(missing) = true")
	}
}

func TestWriteEncryptedNaming(t *testing.T) {
	kp := testKeyPair(t)
	dir := t.TempDir()

	path, err := WriteEncrypted(dir, testMessage(), kp)
	if err != nil {
		t.Fatal(err)
	}
	name := filepath.Base(path)
	if !regexp.MustCompile(`^[0-9A-F]{16}$`).MatchString(name) {
		t.Errorf("container name %q is not 16 uppercase hex digits", name)
	}

	msg, err := DecryptAndVerifyFile(path, kp)
	if err != nil {
		t.Fatalf("DecryptAndVerifyFile: %v", err)
	}
	if string(msg.Data) != "jpeg bytes go here" {
		t.Errorf("Data = %q", msg.Data)
	}
}
