package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("save: %w", Clone(ErrEditWindowClosed, "attendance edit window closed"))

	got := FromError(wrapped)

	assert.Equal(t, "EDIT_WINDOW_CLOSED", got.Code)
	assert.Equal(t, http.StatusForbidden, got.Status)
	assert.True(t, errors.Is(wrapped, ErrEditWindowClosed))
	assert.False(t, errors.Is(wrapped, ErrForbidden))
}

func TestFromErrorMapsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert user: %w", &pq.Error{Code: "23505"})

	got := FromError(err)

	assert.Equal(t, ErrConflict.Code, got.Code)
	assert.Equal(t, http.StatusConflict, got.Status)
}

func TestFromErrorHidesDriverText(t *testing.T) {
	got := FromError(errors.New("pq: connection refused"))

	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, ErrInternal.Message, got.Message)
}
