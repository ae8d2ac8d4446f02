package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	OrderDate       time.Time       `json:"order_date"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	ShippingAddress string          `json:"shipping_address"`
	OrderDetails    []OrderDetail   `json:"order_details"`
}

type OrderDetail struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
