package response

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderResponse "github.com/Alturino/storefront/order/pkg/response"
)

type Cart struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Items          []CartItem      `json:"items"`
	CartTotalPrice decimal.Decimal `json:"cart_total_price"`
}

type CartItem struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int32           `json:"quantity"`
	ItemTotalPrice decimal.Decimal `json:"item_total_price"`
}

type Checkout struct {
	Order         orderResponse.Order `json:"order"`
	TransactionID string              `json:"transaction_id"`
}
