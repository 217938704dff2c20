// Package fileops provides filesystem helpers for Picvault: owner-only
// directory creation, file timestamp preservation, and random container
// name generation inside the vault directory.
package fileops

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Picvault/internal/errors"
	"Picvault/internal/log"
)

// MaxNameAttempts bounds the random-name collision retry loop. Running out
// of attempts indicates a deeper filesystem problem and is treated as fatal
// by callers.
const MaxNameAttempts = 100

// randomNameBytes is the entropy per generated container name (16 hex chars).
const randomNameBytes = 8

// EnsurePrivateDir creates the directory (and parents) if necessary and
// restricts it to the owner.
func EnsurePrivateDir(path string) error {
	if err := os.MkdirAll(path, 0700); err != nil {
		return errors.NewFileError("mkdir", path, err)
	}
	// MkdirAll leaves pre-existing directories alone, so tighten explicitly.
	if err := os.Chmod(path, 0700); err != nil {
		return errors.NewFileError("chmod", path, err)
	}
	return nil
}

// CreateRandom creates a new file with a random 16-character uppercase hex
// name inside dir, retrying on collision. The file is created exclusively
// with owner-only permissions. Returns errors.ErrNameExhausted after
// MaxNameAttempts failed attempts.
func CreateRandom(dir string) (string, *os.File, error) {
	buf := make([]byte, randomNameBytes)
	for i := 0; i < MaxNameAttempts; i++ {
		if _, err := rand.Read(buf); err != nil {
			return "", nil, errors.Wrap(errors.ErrRandFailure, err.Error())
		}
		name := strings.ToUpper(hex.EncodeToString(buf))
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			return path, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, errors.NewFileError("create", path, err)
		}
	}
	return "", nil, errors.ErrNameExhausted
}

// SetFileTimes sets the access and modification timestamps on path.
// Failures are logged but reported to the caller for its own accounting.
func SetFileTimes(path string, atime, mtime time.Time) error {
	if err := os.Chtimes(path, atime, mtime); err != nil {
		log.Warn("failed to set file times", log.String("path", path), log.Err(err))
		return errors.NewFileError("chtimes", path, err)
	}
	return nil
}

// CopyTimes stamps dst with the access/modification times of src, when
// they can be read. Missing source times are not an error.
func CopyTimes(dst, src string) error {
	atime, mtime, err := StatTimes(src)
	if err != nil {
		return err
	}
	return SetFileTimes(dst, atime, mtime)
}

// RemoveQuiet removes a file, logging rather than failing when the file is
// already gone.
func RemoveQuiet(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to delete", log.String("path", path), log.Err(err))
	}
}
