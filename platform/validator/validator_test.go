package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payment struct {
	AmountCents int64  `validate:"gt=0"`
	Reference   string `validate:"required,even"`
}

func TestMessageFlattensFieldErrors(t *testing.T) {
	v := New()
	require.NoError(t, v.RegisterValidation("even", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String())%2 == 0
	}))

	err := v.Struct(payment{AmountCents: 0, Reference: "abc"})
	require.Error(t, err)
	assert.Equal(t, "AmountCents failed gt=0; Reference failed even", Message(err))
}

func TestMessagePassesThroughOtherErrors(t *testing.T) {
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
