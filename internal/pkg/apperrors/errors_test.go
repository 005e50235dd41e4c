package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewAuthorization("x"), http.StatusForbidden},
		{NewValidation("x"), http.StatusBadRequest},
		{NewState("x"), http.StatusConflict},
		{NewNotFound("x"), http.StatusNotFound},
		{NewDependency("x", nil), http.StatusPaymentRequired},
		{NewInvalidRequest("x"), http.StatusBadRequest},
		{New(ErrAuthFailed, "x", nil), http.StatusUnauthorized},
		{New(ErrRateLimited, "x", nil), http.StatusTooManyRequests},
		{New(ErrReadOnly, "x", nil), http.StatusServiceUnavailable},
		{New(ErrInternal, "x", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatus, string(tt.err.Type))
	}
}

func TestIsSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("subscribe: %w", NewNotFound("config not initialized"))
	assert.True(t, Is(err, ErrNotFound))
	assert.True(t, Is(err, ErrState), "not-found is a state error")
	assert.False(t, Is(err, ErrValidation))
	assert.False(t, Is(NewState("x"), ErrNotFound))
	assert.False(t, Is(errors.New("plain"), ErrState))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))

	app := NewValidation("bad tier %d", 5)
	assert.Same(t, app, Wrap(fmt.Errorf("ctx: %w", app)))
	assert.Equal(t, "bad tier 5", app.Error())

	cause := errors.New("io")
	wrapped := Wrap(cause)
	assert.Equal(t, ErrInternal, wrapped.Type)
	assert.ErrorIs(t, wrapped, cause)

	dep := NewDependency("transfer failed", cause)
	assert.Equal(t, "transfer failed: io", dep.Error())
}
