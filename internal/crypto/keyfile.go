package crypto

import (
	"crypto/x509"
	"os"

	"golang.org/x/crypto/chacha20poly1305"

	"Picvault/internal/errors"
	"Picvault/internal/log"
)

// Key file layout:
//
//	magic "PVK1" (4 bytes)
//	flag (1 byte): 0 = plain DER, 1 = passphrase-encrypted
//	plain:     PKCS#1 DER private key
//	encrypted: argon2 salt (16) | XChaCha20 nonce (24) | sealed DER
//
// The flag byte lets the startup probe distinguish a locked key from an
// unprotected or invalid one without a passphrase.
var keyFileMagic = []byte("PVK1")

const (
	keyFlagPlain     = 0
	keyFlagEncrypted = 1
)

// ProbeKeyFile inspects the key file without requiring a passphrase and
// classifies it:
//
//	nil                    key present, not passphrase-protected
//	errors.ErrKeyEncrypted key present, passphrase-protected
//	errors.ErrKeyMissing   no key file
//	errors.ErrKeyInvalid   unrecognized or corrupt key file
func ProbeKeyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ErrKeyMissing
		}
		return errors.NewFileError("read", path, err)
	}
	body, flag, err := splitKeyFile(data)
	if err != nil {
		return err
	}
	if flag == keyFlagEncrypted {
		return errors.ErrKeyEncrypted
	}
	if _, err := x509.ParsePKCS1PrivateKey(body); err != nil {
		return errors.ErrKeyInvalid
	}
	return nil
}

// LoadKeyFile reads and, if necessary, decrypts the key file. An empty
// password against an encrypted key yields errors.ErrKeyEncrypted; a
// non-empty password that fails to open it yields errors.ErrWrongPassword.
func LoadKeyFile(path, password string) (*KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrKeyMissing
		}
		return nil, errors.NewFileError("read", path, err)
	}
	body, flag, err := splitKeyFile(data)
	if err != nil {
		return nil, err
	}

	der := body
	if flag == keyFlagEncrypted {
		if password == "" {
			return nil, errors.ErrKeyEncrypted
		}
		if len(body) < SaltSize+chacha20poly1305.NonceSizeX+1 {
			return nil, errors.ErrKeyInvalid
		}
		salt := body[:SaltSize]
		nonce := body[SaltSize : SaltSize+chacha20poly1305.NonceSizeX]
		sealed := body[SaltSize+chacha20poly1305.NonceSizeX:]

		key, err := DeriveKey([]byte(password), salt)
		if err != nil {
			return nil, err
		}
		defer SecureZero(key)

		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, errors.Wrap(err, "key file cipher")
		}
		der, err = aead.Open(nil, nonce, sealed, keyFileMagic)
		if err != nil {
			return nil, errors.ErrWrongPassword
		}
	}

	priv, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, errors.ErrKeyInvalid
	}
	return &KeyPair{private: priv}, nil
}

// SaveKeyFile writes the key pair to path, passphrase-encrypted when a
// password is given. The file is written to a temporary name and renamed
// into place so a failure never leaves a partial key file, and the old
// file, if any, remains untouched until the new one is complete.
func SaveKeyFile(path string, kp *KeyPair, password string) error {
	der := x509.MarshalPKCS1PrivateKey(kp.private)
	defer SecureZero(der)

	out := make([]byte, 0, len(der)+64)
	out = append(out, keyFileMagic...)

	if password == "" {
		out = append(out, keyFlagPlain)
		out = append(out, der...)
	} else {
		salt, err := RandomBytes(SaltSize)
		if err != nil {
			return err
		}
		nonce, err := RandomBytes(chacha20poly1305.NonceSizeX)
		if err != nil {
			return err
		}
		key, err := DeriveKey([]byte(password), salt)
		if err != nil {
			return err
		}
		defer SecureZero(key)

		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return errors.Wrap(err, "key file cipher")
		}
		out = append(out, keyFlagEncrypted)
		out = append(out, salt...)
		out = append(out, nonce...)
		out = aead.Seal(out, nonce, der, keyFileMagic)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0600); err != nil {
		return errors.NewFileError("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewFileError("rename", path, err)
	}
	return nil
}

// CheckPassword reports whether password opens the key file. A key file
// that is not passphrase-protected always fails the check, matching the
// behavior callers rely on before offering a password change.
func CheckPassword(path, password string) bool {
	if ProbeKeyFile(path) != errors.ErrKeyEncrypted {
		log.Warn("key file is not encrypted", log.String("path", path))
		return false
	}
	_, err := LoadKeyFile(path, password)
	return err == nil
}

// ChangePassword re-encrypts the key file under a new passphrase. The new
// file is written alongside as ".new", the old one parked as ".save", and
// the swap completed with renames so an interruption at any point leaves a
// usable key file behind.
func ChangePassword(path, oldPassword, newPassword string) bool {
	if !CheckPassword(path, oldPassword) {
		return false
	}
	kp, err := LoadKeyFile(path, oldPassword)
	if err != nil {
		return false
	}

	newPath := path + ".new"
	savePath := path + ".save"
	if err := SaveKeyFile(newPath, kp, newPassword); err != nil {
		log.Warn("failed to write new key file", log.Err(err))
		return false
	}
	os.Remove(savePath)
	if err := os.Rename(path, savePath); err != nil {
		log.Warn("failed to park old key file", log.Err(err))
		os.Remove(newPath)
		return false
	}
	if err := os.Rename(newPath, path); err != nil {
		log.Warn("failed to install new key file", log.Err(err))
		// Put the old key back; better locked than lost.
		os.Rename(savePath, path)
		os.Remove(newPath)
		return false
	}
	os.Remove(savePath)
	log.Info("password changed", log.String("path", path))
	return true
}

func splitKeyFile(data []byte) (body []byte, flag byte, err error) {
	if len(data) < len(keyFileMagic)+2 {
		return nil, 0, errors.ErrKeyInvalid
	}
	for i, b := range keyFileMagic {
		if data[i] != b {
			return nil, 0, errors.ErrKeyInvalid
		}
	}
	flag = data[len(keyFileMagic)]
	if flag != keyFlagPlain && flag != keyFlagEncrypted {
		return nil, 0, errors.ErrKeyInvalid
	}
	return data[len(keyFileMagic)+1:], flag, nil
}
