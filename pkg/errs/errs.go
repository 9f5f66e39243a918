// Package errs contains the error kinds surfaced by the word-list core.
// Callers compare with errors.Is; every layer wraps with fmt.Errorf("...: %w").
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a lookup yielded no result, or the referenced word does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork covers transport failures and non-success upstream statuses.
	ErrNetwork = errors.New("network error")

	// ErrDuplicate is returned when a word is already saved in the target list.
	ErrDuplicate = errors.New("duplicate word")

	// ErrReservedList is returned on attempts to delete the seed list.
	ErrReservedList = errors.New("reserved list")

	// ErrMissingList means the referenced list id is not present.
	ErrMissingList = errors.New("missing list")

	// ErrAlreadyExists reports a primary key collision in the store.
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation marks rejected input.
	ErrValidation = errors.New("validation error")

	// ErrStore marks any unrecoverable backing-store failure.
	ErrStore = errors.New("store error")
)

// StoreError wraps a backing-store failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStore) match any StoreError.
func (e *StoreError) Is(target error) bool { return target == ErrStore }
