package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	orderResponse "github.com/Alturino/storefront/order/pkg/response"
	productResponse "github.com/Alturino/storefront/product/pkg/response"
	userResponse "github.com/Alturino/storefront/user/pkg/response"
)

func NumericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:              d.Coefficient(),
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		NaN:              false,
		Valid:            true,
	}
}

func DecimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func (u User) Response() userResponse.User {
	return userResponse.User{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt.Time,
		UpdatedAt:   u.UpdatedAt.Time,
	}
}

func (p Product) Response() productResponse.Product {
	return productResponse.Product{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         DecimalFromNumeric(p.Price),
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		CreatedAt:     p.CreatedAt.Time,
		UpdatedAt:     p.UpdatedAt.Time,
	}
}

func (r FindCartItemsWithProductRow) Response() cartResponse.CartItem {
	price := DecimalFromNumeric(r.Price)
	return cartResponse.CartItem{
		ID:             r.ID,
		ProductID:      r.ProductID,
		Name:           r.Name,
		Price:          price,
		Quantity:       r.Quantity,
		ItemTotalPrice: price.Mul(decimal.NewFromInt32(r.Quantity)),
	}
}

func (o Order) Response(details []OrderDetail) orderResponse.Order {
	orderDetails := make([]orderResponse.OrderDetail, 0, len(details))
	for _, d := range details {
		orderDetails = append(orderDetails, d.Response())
	}
	return orderResponse.Order{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderDate:       o.OrderDate.Time,
		TotalPrice:      DecimalFromNumeric(o.TotalPrice),
		ShippingAddress: o.ShippingAddress,
		OrderDetails:    orderDetails,
	}
}

func (d OrderDetail) Response() orderResponse.OrderDetail {
	return orderResponse.OrderDetail{
		ID:        d.ID,
		OrderID:   d.OrderID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		Price:     DecimalFromNumeric(d.Price),
	}
}
