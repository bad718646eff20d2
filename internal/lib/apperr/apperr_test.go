package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("services.auth.SignUp: %w", Conflict("User already exists"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestValidation_JoinsMessagesInOrder(t *testing.T) {
	err := Validation(
		[]string{"name", "price", "category"},
		map[string]string{
			"category": "Category is required",
			"name":     "Subscription name must be at least 3 characters long",
		},
	)

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, "Subscription name must be at least 3 characters long, Category is required", err.Message)
	assert.Len(t, err.Fields, 2)
}

func TestInvalidID(t *testing.T) {
	cause := errors.New("invalid UUID length: 3")
	err := InvalidID("id", cause)

	assert.Equal(t, KindNotFound, err.Kind)
	assert.Equal(t, "Resource not found. Invalid: id", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "User not found", PublicMessage(NotFound("User not found")))
	assert.Equal(t, "Server Error", PublicMessage(Internal(errors.New("db down"))))
	assert.Equal(t, "Server Error", PublicMessage(errors.New("raw")))
}
