package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertOrder = `-- name: InsertOrder :one
INSERT INTO orders (user_id, order_date, total_price, shipping_address)
VALUES ($1, NOW(), $2, $3)
RETURNING id, user_id, order_date, total_price, shipping_address, created_at, updated_at
`

type InsertOrderParams struct {
	UserID          uuid.UUID      `json:"user_id"`
	TotalPrice      pgtype.Numeric `json:"total_price"`
	ShippingAddress string         `json:"shipping_address"`
}

func (q *Queries) InsertOrder(c context.Context, arg InsertOrderParams) (Order, error) {
	row := q.db.QueryRow(c, insertOrder, arg.UserID, arg.TotalPrice, arg.ShippingAddress)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OrderDate,
		&i.TotalPrice,
		&i.ShippingAddress,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findOrdersByUserId = `-- name: FindOrdersByUserId :many
SELECT id, user_id, order_date, total_price, shipping_address, created_at, updated_at
FROM orders
WHERE user_id = $1
ORDER BY order_date DESC, id
`

func (q *Queries) FindOrdersByUserId(c context.Context, userID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(c, findOrdersByUserId, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.OrderDate,
			&i.TotalPrice,
			&i.ShippingAddress,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findOrderById = `-- name: FindOrderById :one
SELECT id, user_id, order_date, total_price, shipping_address, created_at, updated_at
FROM orders
WHERE id = $1 AND user_id = $2
`

type FindOrderByIdParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) FindOrderById(c context.Context, arg FindOrderByIdParams) (Order, error) {
	row := q.db.QueryRow(c, findOrderById, arg.ID, arg.UserID)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OrderDate,
		&i.TotalPrice,
		&i.ShippingAddress,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findOrderByIdForUpdate = `-- name: FindOrderByIdForUpdate :one
SELECT id, user_id, order_date, total_price, shipping_address, created_at, updated_at
FROM orders
WHERE id = $1 AND user_id = $2
FOR UPDATE
`

func (q *Queries) FindOrderByIdForUpdate(c context.Context, arg FindOrderByIdParams) (Order, error) {
	row := q.db.QueryRow(c, findOrderByIdForUpdate, arg.ID, arg.UserID)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OrderDate,
		&i.TotalPrice,
		&i.ShippingAddress,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const adjustOrderTotal = `-- name: AdjustOrderTotal :one
UPDATE orders
SET total_price = total_price + $3, updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, order_date, total_price, shipping_address, created_at, updated_at
`

type AdjustOrderTotalParams struct {
	ID     uuid.UUID      `json:"id"`
	UserID uuid.UUID      `json:"user_id"`
	Delta  pgtype.Numeric `json:"delta"`
}

func (q *Queries) AdjustOrderTotal(c context.Context, arg AdjustOrderTotalParams) (Order, error) {
	row := q.db.QueryRow(c, adjustOrderTotal, arg.ID, arg.UserID, arg.Delta)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OrderDate,
		&i.TotalPrice,
		&i.ShippingAddress,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteOrder = `-- name: DeleteOrder :execrows
DELETE FROM orders WHERE id = $1 AND user_id = $2
`

type DeleteOrderParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) DeleteOrder(c context.Context, arg DeleteOrderParams) (int64, error) {
	result, err := q.db.Exec(c, deleteOrder, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertOrderDetail = `-- name: InsertOrderDetail :one
INSERT INTO order_details (order_id, product_id, quantity, price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, product_id, quantity, price
`

type InsertOrderDetailParams struct {
	OrderID   uuid.UUID      `json:"order_id"`
	ProductID uuid.UUID      `json:"product_id"`
	Quantity  int32          `json:"quantity"`
	Price     pgtype.Numeric `json:"price"`
}

func (q *Queries) InsertOrderDetail(c context.Context, arg InsertOrderDetailParams) (OrderDetail, error) {
	row := q.db.QueryRow(c, insertOrderDetail,
		arg.OrderID,
		arg.ProductID,
		arg.Quantity,
		arg.Price,
	)
	var i OrderDetail
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.Quantity,
		&i.Price,
	)
	return i, err
}

const findOrderDetailsByOrderId = `-- name: FindOrderDetailsByOrderId :many
SELECT id, order_id, product_id, quantity, price
FROM order_details
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) FindOrderDetailsByOrderId(c context.Context, orderID uuid.UUID) ([]OrderDetail, error) {
	rows, err := q.db.Query(c, findOrderDetailsByOrderId, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderDetail{}
	for rows.Next() {
		var i OrderDetail
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ProductID,
			&i.Quantity,
			&i.Price,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findOrderDetailForUpdate = `-- name: FindOrderDetailForUpdate :one
SELECT id, order_id, product_id, quantity, price
FROM order_details
WHERE id = $1 AND order_id = $2
FOR UPDATE
`

type FindOrderDetailForUpdateParams struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
}

func (q *Queries) FindOrderDetailForUpdate(
	c context.Context,
	arg FindOrderDetailForUpdateParams,
) (OrderDetail, error) {
	row := q.db.QueryRow(c, findOrderDetailForUpdate, arg.ID, arg.OrderID)
	var i OrderDetail
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.Quantity,
		&i.Price,
	)
	return i, err
}

const updateOrderDetail = `-- name: UpdateOrderDetail :one
UPDATE order_details
SET quantity = $2, price = $3
WHERE id = $1
RETURNING id, order_id, product_id, quantity, price
`

type UpdateOrderDetailParams struct {
	ID       uuid.UUID      `json:"id"`
	Quantity int32          `json:"quantity"`
	Price    pgtype.Numeric `json:"price"`
}

func (q *Queries) UpdateOrderDetail(c context.Context, arg UpdateOrderDetailParams) (OrderDetail, error) {
	row := q.db.QueryRow(c, updateOrderDetail, arg.ID, arg.Quantity, arg.Price)
	var i OrderDetail
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.Quantity,
		&i.Price,
	)
	return i, err
}

const deleteOrderDetail = `-- name: DeleteOrderDetail :execrows
DELETE FROM order_details WHERE id = $1
`

func (q *Queries) DeleteOrderDetail(c context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(c, deleteOrderDetail, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
