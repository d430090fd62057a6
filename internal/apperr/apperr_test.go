package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/web3hire/web3hire-be/internal/apperr"
)

func TestKindOf(t *testing.T) {
	err := apperr.NotFound("task not found")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.False(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := apperr.Conflict("duplicate bid")
	wrapped := fmt.Errorf("placing bid: %w", inner)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(wrapped))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Upstream("loading task", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "loading task")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.NotFound("x"), http.StatusNotFound},
		{apperr.Unauthenticated("x"), http.StatusUnauthorized},
		{apperr.Forbidden("x"), http.StatusForbidden},
		{apperr.InvalidState("x"), http.StatusUnprocessableEntity},
		{apperr.Conflict("x"), http.StatusConflict},
		{apperr.Upstream("x", nil), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, apperr.HTTPStatus(tt.err), "for %v", tt.err)
	}
}
