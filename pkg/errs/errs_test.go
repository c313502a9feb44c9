package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("userId is required"), KindValidation},
		{"storage keeps cause", Storage("load order", cause), KindStorage},
		{"wrapped twice", fmt.Errorf("checkout: %w", Configuration("cinetpay api key missing")), KindConfiguration},
		{"plain error", cause, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestStorageUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Storage("transition order", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transition order: timeout", err.Error())
	assert.True(t, IsKind(err, KindStorage))
}

func TestSentinelIdentity(t *testing.T) {
	sentinel := NotFound("order not found")
	wrapped := fmt.Errorf("lookup: %w", sentinel)

	assert.ErrorIs(t, wrapped, sentinel)
	assert.False(t, errors.Is(wrapped, NotFound("order not found")))
}
