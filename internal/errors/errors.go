// Package errors provides typed errors for Picvault operations.
// This enables callers to use errors.Is() and errors.As() for specific error handling.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
// Use errors.Is(err, errors.ErrCancelled) to check for specific errors.
var (
	// Operation errors
	ErrCancelled     = errors.New("operation cancelled")
	ErrNotContainer  = errors.New("not a picvault container")
	ErrVerifyFailed  = errors.New("container verification failed")
	ErrNotImage      = errors.New("data is not a decodable image")
	ErrNameExhausted = errors.New("random container name space exhausted")

	// Key state errors
	ErrKeyMissing    = errors.New("key file not found")
	ErrKeyEncrypted  = errors.New("key file is encrypted")
	ErrKeyInvalid    = errors.New("key file format invalid")
	ErrWrongPassword = errors.New("wrong password")

	// Crypto errors
	ErrRandFailure = errors.New("crypto/rand failure")
)

// FileError represents an error during file operations.
type FileError struct {
	Op   string // Operation: "open", "read", "write", "stat", "create", "remove", "rename"
	Path string // File path
	Err  error  // Underlying error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Op, e.Path)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// NewFileError creates a new FileError.
func NewFileError(op, path string, err error) *FileError {
	return &FileError{Op: op, Path: path, Err: err}
}

// ContainerError represents a failure to decrypt, verify, or parse one
// encrypted container. During bulk scans these are absorbed per file and
// never abort the batch.
type ContainerError struct {
	Path string // Container path
	Err  error  // Underlying error
}

func (e *ContainerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("container %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("container %s unusable", e.Path)
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}

// NewContainerError creates a new ContainerError.
func NewContainerError(path string, err error) *ContainerError {
	return &ContainerError{Path: path, Err: err}
}

// Is reports whether target matches any error in err's chain.
// This is a convenience function for common error checks.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error with the supplied text.
func New(text string) error {
	return errors.New(text)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCancelled checks if the error indicates a cancelled operation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsKeyState reports whether the error belongs to the key state family
// (missing, encrypted, invalid, wrong password). These surface to callers
// as boolean/state results rather than propagated errors.
func IsKeyState(err error) bool {
	return errors.Is(err, ErrKeyMissing) || errors.Is(err, ErrKeyEncrypted) ||
		errors.Is(err, ErrKeyInvalid) || errors.Is(err, ErrWrongPassword)
}
