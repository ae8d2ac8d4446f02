package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     error
		expected string
	}{
		{
			name:     "given wrapped invalid quantity should unwrap to validation",
			err:      fmt.Errorf("failed adding item with error=%w", ErrInvalidQuantity),
			kind:     ErrValidation,
			expected: "Invalid quantity",
		},
		{
			name:     "given insufficient stock should unwrap to conflict",
			err:      fmt.Errorf("failed reserving stock with error=%w", ErrInsufficientStock),
			kind:     ErrConflict,
			expected: "Insufficient stock",
		},
		{
			name:     "given not owner should unwrap to forbidden",
			err:      fmt.Errorf("failed authorizing with error=%w", ErrNotOwner),
			kind:     ErrForbidden,
			expected: ErrNotOwner.Error(),
		},
		{
			name:     "given plain error should keep raw message",
			err:      errors.New("connection refused"),
			kind:     nil,
			expected: "connection refused",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.kind != nil {
				assert.ErrorIs(t, test.err, test.kind)
			}
			assert.Equal(t, test.expected, Message(test.err))
		})
	}
}
