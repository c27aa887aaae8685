package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedAppError(t *testing.T) {
	err := fmt.Errorf("search: %w", Retrieval("Failed to query queue", stderrors.New("unavailable")))

	assert.True(t, Is(err, CodeRetrieval))
	assert.False(t, Is(err, CodeNotFound))
	assert.False(t, Is(stderrors.New("plain"), CodeRetrieval))
}

func TestStatusAndRetryable(t *testing.T) {
	tests := []struct {
		err       *AppError
		status    int
		retryable bool
	}{
		{Retrieval("x", nil), http.StatusServiceUnavailable, true},
		{TransactionConflict("x", nil), http.StatusConflict, true},
		{TooManyRequests("x"), http.StatusTooManyRequests, true},
		{Validation("x"), http.StatusBadRequest, false},
		{NotFound("Match", nil), http.StatusNotFound, false},
		{Forbidden("x", nil), http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.retryable, tt.err.Retryable())
		})
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := stderrors.New("deadline exceeded")
	err := Internal("Failed to save", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "deadline exceeded")

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, CodeInternal, appErr.Code)
}
