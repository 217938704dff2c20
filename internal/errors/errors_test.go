package errors

import (
	"fmt"
	"testing"
)

func TestFileErrorUnwraps(t *testing.T) {
	inner := New("disk on fire")
	err := NewFileError("read", "/vault/X", inner)
	if !Is(err, inner) {
		t.Error("FileError does not unwrap to its cause")
	}
	var fe *FileError
	if !As(err, &fe) {
		t.Fatal("As(*FileError) failed")
	}
	if fe.Op != "read" || fe.Path != "/vault/X" {
		t.Errorf("FileError fields = %q %q", fe.Op, fe.Path)
	}
}

func TestContainerErrorUnwraps(t *testing.T) {
	err := NewContainerError("/vault/X", ErrNotContainer)
	if !Is(err, ErrNotContainer) {
		t.Error("ContainerError does not unwrap to ErrNotContainer")
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrWrongPassword, "loading key")
	if !Is(err, ErrWrongPassword) {
		t.Error("Wrap broke the error chain")
	}
	if Wrap(nil, "anything") != nil {
		t.Error("Wrap(nil) != nil")
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(ErrCancelled) {
		t.Error("IsCancelled(ErrCancelled) = false")
	}
	if !IsCancelled(fmt.Errorf("outer: %w", ErrCancelled)) {
		t.Error("IsCancelled does not see through wrapping")
	}
	if IsCancelled(ErrNotImage) {
		t.Error("IsCancelled(ErrNotImage) = true")
	}
}

func TestIsKeyState(t *testing.T) {
	for _, err := range []error{ErrKeyMissing, ErrKeyEncrypted, ErrKeyInvalid} {
		if !IsKeyState(err) {
			t.Errorf("IsKeyState(%v) = false", err)
		}
	}
	if IsKeyState(ErrNotContainer) {
		t.Error("IsKeyState(ErrNotContainer) = true")
	}
}
