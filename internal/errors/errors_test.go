package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOfThroughWrapping(t *testing.T) {
	base := NewStorageError("write account record", errors.New("disk full"))
	wrapped := fmt.Errorf("save blueprint: %w", base)

	assert.True(t, IsStorageError(wrapped))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(wrapped))
	assert.Equal(t, "STORAGE_ERROR", CodeOf(wrapped))
	assert.Equal(t, "write account record: disk full", base.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewNotFoundError("missing", nil), http.StatusNotFound},
		{NewUnauthorizedError("who", nil), http.StatusUnauthorized},
		{NewConflictError("busy", nil), http.StatusConflict},
		{NewLLMUnavailableError("no provider", nil), http.StatusServiceUnavailable},
		{NewTimeoutError("slow", nil), http.StatusGatewayTimeout},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ctx", ErrorTypeError))

	err := WrapError(NewConflictError("generation in progress", nil), "start generation", ErrorTypeError)
	assert.True(t, IsConflictError(err))
	assert.Equal(t, "start generation: generation in progress", err.Error())

	err = WrapError(errors.New("boom"), "parse", ErrorTypeValidation)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "INTERNAL_ERROR", CodeOf(errors.New("boom")))
}
