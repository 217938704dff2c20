package fileops

import (
	"os"
	"syscall"
	"time"

	"Picvault/internal/errors"
)

// StatTimes returns the access and modification timestamps of path.
func StatTimes(path string) (atime, mtime time.Time, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewFileError("stat", path, err)
	}
	mtime = info.ModTime()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		atime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
	} else {
		atime = mtime
	}
	return atime, mtime, nil
}
