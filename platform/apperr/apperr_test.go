package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreconditionMessage(t *testing.T) {
	err := Precondition("new", "appointment_scheduled", "decision_pending")
	assert.Equal(t, "current status new, required appointment_scheduled or decision_pending", err.Error())
	assert.Equal(t, http.StatusConflict, err.HTTPStatus())
}

func TestGetKindUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", Financial("invoice already validated"))
	assert.Equal(t, KindFinancial, GetKind(wrapped))
	assert.True(t, Is(wrapped, KindFinancial))
	assert.False(t, Is(wrapped, KindPrecondition))
	assert.False(t, Is(nil, KindFinancial))
	assert.Equal(t, KindUnknown, GetKind(fmt.Errorf("plain")))
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindPrecondition, http.StatusConflict},
		{KindFinancial, http.StatusUnprocessableEntity},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range append(tests, struct {
		kind Kind
		want int
	}{KindUnknown, http.StatusBadRequest}) {
		t.Run(tc.kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, New(tc.kind, "x").HTTPStatus())
		})
	}
}
