package request

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

type CreateOrder struct {
	TotalPrice      decimal.Decimal `validate:"price"    json:"total_price"`
	ShippingAddress string          `validate:"required" json:"shipping_address"`
	OrderDetails    []OrderDetail   `validate:"dive"     json:"order_details"`
}

type OrderDetail struct {
	ProductID uuid.UUID `validate:"required"      json:"product_id"`
	Quantity  int32     `validate:"required,gt=0" json:"quantity"`
}

// UpdateOrderDetail carries a signed quantity delta. The raw number is kept so
// a fractional or out of range delta is reported as an invalid quantity.
type UpdateOrderDetail struct {
	Quantity json.Number `json:"quantity"`
}

func (u UpdateOrderDetail) Delta() (int32, error) {
	delta, err := u.Quantity.Int64()
	if err != nil || delta > math.MaxInt32 || delta < math.MinInt32 {
		return 0, fmt.Errorf("failed parsing quantity=%q with error=%w", u.Quantity, inErrors.ErrInvalidQuantity)
	}
	return int32(delta), nil
}

type RemoveOrderDetailQuantity struct {
	QuantityToRemove int32 `json:"quantity_to_remove"`
}
