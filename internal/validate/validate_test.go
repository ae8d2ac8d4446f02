package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type priced struct {
	Price decimal.Decimal `validate:"price"`
}

type contact struct {
	Phone string `validate:"required,phone"`
}

func TestValidatePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   priced
		isValid bool
	}{
		{name: "given positive price should be valid", input: priced{Price: decimal.RequireFromString("5.00")}, isValid: true},
		{name: "given zero price should be valid", input: priced{Price: decimal.Zero}, isValid: true},
		{name: "given negative price should be invalid", input: priced{Price: decimal.RequireFromString("-1")}, isValid: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := New().Struct(test.input)
			if test.isValid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		isValid bool
	}{
		{name: "given digits and dash should be valid", phone: "555-1234", isValid: true},
		{name: "given international format should be valid", phone: "+62 812 3456", isValid: true},
		{name: "given letters should be invalid", phone: "call me", isValid: false},
		{name: "given empty should be invalid", phone: "", isValid: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := New().Struct(contact{Phone: test.phone})
			if test.isValid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}
