package fileops

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestEnsurePrivateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "vault")
	if err := EnsurePrivateDir(dir); err != nil {
		t.Fatalf("EnsurePrivateDir: %v", err)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0o700 {
		t.Errorf("directory mode = %o, want 700", perm)
	}
	// Idempotent.
	if err := EnsurePrivateDir(dir); err != nil {
		t.Errorf("second EnsurePrivateDir: %v", err)
	}
}

func TestCreateRandomNames(t *testing.T) {
	dir := t.TempDir()
	namePattern := regexp.MustCompile(`^[0-9A-F]{16}$`)
	seen := make(map[string]bool)

	for i := 0; i < 10; i++ {
		path, f, err := CreateRandom(dir)
		if err != nil {
			t.Fatalf("CreateRandom: %v", err)
		}
		f.Close()

		name := filepath.Base(path)
		if !namePattern.MatchString(name) {
			t.Errorf("name %q is not 16 uppercase hex digits", name)
		}
		if seen[name] {
			t.Errorf("name %q repeated", name)
		}
		seen[name] = true

		fi, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := fi.Mode().Perm(); perm != 0o600 {
			t.Errorf("file mode = %o, want 600", perm)
		}
	}
}

func TestSetAndStatFileTimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2022, 11, 10, 9, 8, 7, 0, time.UTC)
	atime := mtime.Add(time.Hour)
	if err := SetFileTimes(path, atime, mtime); err != nil {
		t.Fatalf("SetFileTimes: %v", err)
	}
	gotAtime, gotMtime, err := StatTimes(path)
	if err != nil {
		t.Fatalf("StatTimes: %v", err)
	}
	if !gotMtime.Equal(mtime) {
		t.Errorf("mtime = %v, want %v", gotMtime, mtime)
	}
	// atime may be affected by mount options; only check it is not
	// before the mtime we set.
	if gotAtime.Before(mtime) {
		t.Errorf("atime = %v, before mtime %v", gotAtime, mtime)
	}
}

func TestCopyTimes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	for _, p := range []string{src, dst} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := SetFileTimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	if err := CopyTimes(dst, src); err != nil {
		t.Fatalf("CopyTimes: %v", err)
	}
	_, gotMtime, err := StatTimes(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !gotMtime.Equal(mtime) {
		t.Errorf("dst mtime = %v, want %v", gotMtime, mtime)
	}
}

func TestRemoveQuiet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	RemoveQuiet(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists")
	}
	// Removing a missing file must not panic or log fatally.
	RemoveQuiet(path)
}
