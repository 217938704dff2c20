// Package container implements the Picvault encrypted container format.
//
// A container is one encrypted-at-rest file holding either full image data
// or a thumbnail, plus metadata headers. Layout:
//
//	magic "PVC1" (4 bytes)
//	wrapped-key length (uint16 BE) | RSA-OAEP wrapped file key
//	XChaCha20-Poly1305 nonce (24 bytes)
//	ciphertext (rest of file, AAD = magic || wrapped key)
//
// The plaintext is a serialized body {content type, headers, payload}
// followed by an RSA-PSS signature over the body. Decryption failure and
// signature mismatch are reported identically: the file is simply not a
// valid container for this key.
package container

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"

	"Picvault/internal/crypto"
	"Picvault/internal/errors"
	"Picvault/internal/fileops"
	"Picvault/internal/log"
)

var magic = []byte("PVC1")

const (
	fileKeySize = 32

	// Wrapped-key length bounds accepted by the sniffer and parser.
	// RSA-OAEP output equals the modulus size: 256 bytes at 2048 bits,
	// 1024 bytes at 8192 bits.
	minWrappedKey = 128
	maxWrappedKey = 4096
)

// Encrypt seals msg to the key pair and writes the container to w.
func Encrypt(w io.Writer, msg *Message, kp *crypto.KeyPair) error {
	body, err := marshalBody(msg)
	if err != nil {
		return err
	}
	sig, err := kp.Sign(body)
	if err != nil {
		return err
	}

	var plain bytes.Buffer
	plain.Write(body)
	writeBytes16(&plain, sig)

	fileKey, err := crypto.RandomBytes(fileKeySize)
	if err != nil {
		return err
	}
	defer crypto.SecureZero(fileKey)

	wrapped, err := kp.WrapKey(fileKey)
	if err != nil {
		return err
	}
	nonce, err := crypto.RandomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(fileKey)
	if err != nil {
		return errors.Wrap(err, "container cipher")
	}

	aad := append(append([]byte{}, magic...), wrapped...)
	ciphertext := aead.Seal(nil, nonce, plain.Bytes(), aad)

	var out bytes.Buffer
	out.Write(magic)
	writeBytes16(&out, wrapped)
	out.Write(nonce)
	out.Write(ciphertext)

	if _, err := w.Write(out.Bytes()); err != nil {
		return errors.Wrap(err, "writing container")
	}
	return nil
}

// DecryptAndVerify opens a container with the key pair. Decrypt failure and
// signature mismatch both yield a nil message; the distinction is never
// meaningful to callers.
func DecryptAndVerify(data []byte, kp *crypto.KeyPair) (*Message, error) {
	wrapped, nonce, ciphertext, err := splitContainer(data)
	if err != nil {
		return nil, err
	}

	fileKey, err := kp.UnwrapKey(wrapped)
	if err != nil {
		return nil, errors.ErrNotContainer
	}
	defer crypto.SecureZero(fileKey)

	aead, err := chacha20poly1305.NewX(fileKey)
	if err != nil {
		return nil, errors.ErrNotContainer
	}
	aad := append(append([]byte{}, magic...), wrapped...)
	plain, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errors.ErrNotContainer
	}

	msg, bodyLen, err := unmarshalBody(plain)
	if err != nil {
		return nil, err
	}
	sig, rest, err := readBytes16(plain[bodyLen:])
	if err != nil || len(rest) != 0 {
		return nil, errors.ErrNotContainer
	}
	if err := kp.Verify(plain[:bodyLen], sig); err != nil {
		return nil, errors.ErrVerifyFailed
	}
	return msg, nil
}

// DecryptAndVerifyFile reads and opens the container at path.
func DecryptAndVerifyFile(path string, kp *crypto.KeyPair) (*Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError("read", path, err)
	}
	msg, err := DecryptAndVerify(data, kp)
	if err != nil {
		return nil, errors.NewContainerError(path, err)
	}
	return msg, nil
}

// Sniff reports whether the file at path plausibly is a Picvault container.
// This is a structural check only, no key required and no decryption
// attempted; it exists so key generation can be gated when a directory may
// already hold encrypted pictures.
func Sniff(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	if !bytes.Equal(head[:len(magic)], magic) {
		return false
	}
	wrappedLen := int(binary.BigEndian.Uint16(head[len(magic):]))
	if wrappedLen < minWrappedKey || wrappedLen > maxWrappedKey {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	// Enough room for the wrapped key, nonce and a non-empty ciphertext.
	return info.Size() > int64(len(head)+wrappedLen+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead)
}

// WriteEncrypted seals msg into a new randomly named container file inside
// destDir and returns its path. A failed write removes the partial file.
func WriteEncrypted(destDir string, msg *Message, kp *crypto.KeyPair) (string, error) {
	path, f, err := fileops.CreateRandom(destDir)
	if err != nil {
		return "", err
	}
	if err := Encrypt(f, msg, kp); err != nil {
		f.Close()
		fileops.RemoveQuiet(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		fileops.RemoveQuiet(path)
		return "", errors.NewFileError("close", path, err)
	}
	log.Debug("wrote container", log.String("path", path), log.Int("bytes", len(msg.Data)))
	return path, nil
}

func splitContainer(data []byte) (wrapped, nonce, ciphertext []byte, err error) {
	if len(data) < len(magic)+2 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, nil, nil, errors.ErrNotContainer
	}
	wrapped, rest, err := readBytes16(data[len(magic):])
	if err != nil || len(wrapped) < minWrappedKey || len(wrapped) > maxWrappedKey {
		return nil, nil, nil, errors.ErrNotContainer
	}
	if len(rest) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, nil, nil, errors.ErrNotContainer
	}
	nonce = rest[:chacha20poly1305.NonceSizeX]
	ciphertext = rest[chacha20poly1305.NonceSizeX:]
	return wrapped, nonce, ciphertext, nil
}

func marshalBody(msg *Message) ([]byte, error) {
	var b bytes.Buffer
	writeString16(&b, msg.ContentType)
	if len(msg.Headers) > 0xffff {
		return nil, errors.New("too many headers")
	}
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(msg.Headers)))
	b.Write(n[:])
	for _, h := range msg.Headers {
		writeString16(&b, h.Name)
		writeString16(&b, h.Value)
	}
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(msg.Data)))
	b.Write(l[:])
	b.Write(msg.Data)
	return b.Bytes(), nil
}

// unmarshalBody parses the body portion of the decrypted plaintext and
// returns the consumed length, leaving the trailing signature for the
// caller.
func unmarshalBody(plain []byte) (*Message, int, error) {
	rest := plain
	contentType, rest, err := readString16(rest)
	if err != nil {
		return nil, 0, errors.ErrNotContainer
	}
	if len(rest) < 2 {
		return nil, 0, errors.ErrNotContainer
	}
	count := int(binary.BigEndian.Uint16(rest))
	rest = rest[2:]

	msg := &Message{ContentType: contentType}
	for i := 0; i < count; i++ {
		var name, value string
		if name, rest, err = readString16(rest); err != nil {
			return nil, 0, errors.ErrNotContainer
		}
		if value, rest, err = readString16(rest); err != nil {
			return nil, 0, errors.ErrNotContainer
		}
		msg.Add(name, value)
	}

	if len(rest) < 4 {
		return nil, 0, errors.ErrNotContainer
	}
	payloadLen := int(binary.BigEndian.Uint32(rest))
	rest = rest[4:]
	if len(rest) < payloadLen {
		return nil, 0, errors.ErrNotContainer
	}
	msg.Data = rest[:payloadLen]
	consumed := len(plain) - (len(rest) - payloadLen)
	return msg, consumed, nil
}

func writeBytes16(b *bytes.Buffer, p []byte) {
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(p)))
	b.Write(n[:])
	b.Write(p)
}

func writeString16(b *bytes.Buffer, s string) {
	writeBytes16(b, []byte(s))
}

func readBytes16(data []byte) ([]byte, []byte, error) {
	if len(data) < 2 {
		return nil, nil, errors.ErrNotContainer
	}
	n := int(binary.BigEndian.Uint16(data))
	data = data[2:]
	if len(data) < n {
		return nil, nil, errors.ErrNotContainer
	}
	return data[:n], data[n:], nil
}

func readString16(data []byte) (string, []byte, error) {
	b, rest, err := readBytes16(data)
	if err != nil {
		return "", nil, err
	}
	return string(b), rest, nil
}
