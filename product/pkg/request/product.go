package request

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	Name          string          `validate:"required,max=255" json:"name"`
	Description   string          `validate:"max=2000"         json:"description"`
	Price         decimal.Decimal `validate:"price"            json:"price"`
	StockQuantity int32           `validate:"gte=0"            json:"stock_quantity"`
	Category      string          `validate:"max=100"          json:"category"`
}

type FindProducts struct {
	Category string `validate:"max=100" json:"category"`
}
