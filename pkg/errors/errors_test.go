package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "class not found"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "class not found", appErr.Message)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestFromErrorNormalisesPlainError(t *testing.T) {
	appErr := FromError(stdErrors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestWrapUnwrap(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed to persist timetable")

	assert.True(t, stdErrors.Is(err, cause))
	assert.Equal(t, "failed to persist timetable: disk full", err.Error())
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrConflict, "other message")
	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.Equal(t, "other message", clone.Message)
	assert.Nil(t, Clone(nil, "x"))
}
