package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Clone(ErrCapacityExceeded, "admin hours exceed capacity"))
	got := FromError(err)
	assert.Equal(t, ErrCapacityExceeded.Code, got.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, got.Status)
	assert.Equal(t, "admin hours exceed capacity", got.Message)
}

func TestFromErrorFallsBackToInternal(t *testing.T) {
	got := FromError(stdErrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.EqualError(t, got, "internal server error: boom")
}

func TestIsComparesCodes(t *testing.T) {
	assert.True(t, Is(Clone(ErrNotFound, "module not found"), ErrNotFound))
	assert.False(t, Is(Clone(ErrConflict, "dup"), ErrNotFound))
	assert.False(t, Is(stdErrors.New("plain"), ErrNotFound))
	assert.False(t, Is(nil, ErrNotFound))
}
