package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNumericDecimalConversion(t *testing.T) {
	tests := []struct {
		name     string
		input    decimal.Decimal
		expected string
	}{
		{name: "given price with cents should keep cents", input: decimal.RequireFromString("5.25"), expected: "5.25"},
		{name: "given zero should stay zero", input: decimal.Zero, expected: "0.00"},
		{name: "given negative delta should keep sign", input: decimal.RequireFromString("-2.50"), expected: "-2.50"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual := DecimalFromNumeric(NumericFromDecimal(test.input))
			assert.Equal(t, test.expected, actual.StringFixed(2))
		})
	}
}

func TestDecimalFromInvalidNumeric(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(DecimalFromNumeric(pgtype.Numeric{})))
	assert.True(t, decimal.Zero.Equal(DecimalFromNumeric(pgtype.Numeric{NaN: true, Valid: true})))
}

func TestCartItemRowResponse(t *testing.T) {
	row := FindCartItemsWithProductRow{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Quantity:  3,
		Name:      "mug",
		Price:     NumericFromDecimal(decimal.RequireFromString("2.50")),
	}

	actual := row.Response()

	assert.Equal(t, row.ID, actual.ID)
	assert.Equal(t, "mug", actual.Name)
	assert.Equal(t, "2.50", actual.Price.StringFixed(2))
	assert.Equal(t, "7.50", actual.ItemTotalPrice.StringFixed(2))
}
