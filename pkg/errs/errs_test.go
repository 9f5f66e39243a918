package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreErrorMatchesErrStore(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk I/O error")
	err := fmt.Errorf("delete list: %w", &StoreError{Op: "delete list", Err: cause})

	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestStoreErrorKeepsContextErrors(t *testing.T) {
	t.Parallel()

	err := &StoreError{Op: "get lists", Err: context.Canceled}
	assert.ErrorIs(t, err, context.Canceled)

	var se *StoreError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &se))
	assert.Equal(t, "get lists", se.Op)
}
