package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationJoinsDetails(t *testing.T) {
	err := Validation([]string{"Name is required", "City is required"})

	assert.Equal(t, ErrCodeValidation, err.Code)
	assert.Equal(t, "Name is required, City is required", err.Message)
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
}

func TestCodeOfFollowsWrapChain(t *testing.T) {
	base := New(ErrCodeNotFound, "Registration not found")
	wrapped := fmt.Errorf("update: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
	assert.Equal(t, ErrCodeInternalError, CodeOf(stderrors.New("boom")))
	assert.False(t, IsConflict(nil))
}

func TestWrapUnwraps(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeInternalError, "failed to save registration", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
