package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestUpdateOrderDetailDelta(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int32
		wantErr error
	}{
		{name: "positive", input: "3", want: 3},
		{name: "negative", input: "-2", want: -2},
		{name: "fractional", input: "1.5", wantErr: inErrors.ErrInvalidQuantity},
		{name: "out of range", input: "4294967296", wantErr: inErrors.ErrInvalidQuantity},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := UpdateOrderDetail{Quantity: json.Number(test.input)}.Delta()
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}
