//go:build !linux

package fileops

import (
	"os"
	"time"

	"Picvault/internal/errors"
)

// StatTimes returns the access and modification timestamps of path.
// Platforms without a portable atime fall back to the modification time.
func StatTimes(path string) (atime, mtime time.Time, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewFileError("stat", path, err)
	}
	return info.ModTime(), info.ModTime(), nil
}
