package request

import (
	"github.com/google/uuid"
)

// CartItem adds quantity units of a product, or sets the quantity of the
// product already in the cart. Quantity bounds are checked by the service so
// they surface as "Invalid quantity".
type CartItem struct {
	ProductID uuid.UUID `validate:"required" json:"product_id"`
	Quantity  int32     `                    json:"quantity"`
}
