package memory

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrDimensionMismatch is returned when an embedding's length doesn't
	// match the store's configured dimensionality. This is a configuration
	// error surfaced at startup validation, not a per-call condition.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotFound is returned when a record id does not exist. Querying a
	// user with no memories returns empty results, never this error.
	ErrNotFound = errors.New("memory record not found")

	// ErrStoreUnavailable is returned when a backing store cannot be reached.
	ErrStoreUnavailable = errors.New("memory store unavailable")

	// ErrStoreClosed is returned when using a store after Close.
	ErrStoreClosed = errors.New("memory store is closed")

	// ErrEmbeddingFailed is returned when the embedding provider fails.
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// StoreError wraps store errors with operation context.
type StoreError struct {
	Op  string // Operation name
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("memory: %v", e.Err)
	}
	return fmt.Sprintf("memory: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error with operation context. Returns nil for nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
