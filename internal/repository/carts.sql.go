package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertCart = `-- name: InsertCart :one
INSERT INTO carts (user_id, total_price)
VALUES ($1, 0)
RETURNING id, user_id, total_price, created_at, updated_at
`

func (q *Queries) InsertCart(c context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, insertCart, userID)
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findCartById = `-- name: FindCartById :one
SELECT id, user_id, total_price, created_at, updated_at
FROM carts
WHERE id = $1
`

func (q *Queries) FindCartById(c context.Context, id uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, findCartById, id)
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findCartByIdForUpdate = `-- name: FindCartByIdForUpdate :one
SELECT id, user_id, total_price, created_at, updated_at
FROM carts
WHERE id = $1
FOR UPDATE
`

func (q *Queries) FindCartByIdForUpdate(c context.Context, id uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, findCartByIdForUpdate, id)
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findCartByUserId = `-- name: FindCartByUserId :one
SELECT id, user_id, total_price, created_at, updated_at
FROM carts
WHERE user_id = $1
`

func (q *Queries) FindCartByUserId(c context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, findCartByUserId, userID)
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findCartByUserIdForUpdate = `-- name: FindCartByUserIdForUpdate :one
SELECT id, user_id, total_price, created_at, updated_at
FROM carts
WHERE user_id = $1
FOR UPDATE
`

func (q *Queries) FindCartByUserIdForUpdate(c context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, findCartByUserIdForUpdate, userID)
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateCartTotal = `-- name: UpdateCartTotal :one
UPDATE carts
SET total_price = $2, updated_at = NOW()
WHERE id = $1
RETURNING id, user_id, total_price, created_at, updated_at
`

type UpdateCartTotalParams struct {
	ID         uuid.UUID      `json:"id"`
	TotalPrice pgtype.Numeric `json:"total_price"`
}

func (q *Queries) UpdateCartTotal(c context.Context, arg UpdateCartTotalParams) (Cart, error) {
	row := q.db.QueryRow(c, updateCartTotal, arg.ID, arg.TotalPrice)
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertCartItem = `-- name: InsertCartItem :one
INSERT INTO cart_items (cart_id, product_id, quantity)
VALUES ($1, $2, $3)
RETURNING id, cart_id, product_id, quantity, created_at, updated_at
`

type InsertCartItemParams struct {
	CartID    uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
}

func (q *Queries) InsertCartItem(c context.Context, arg InsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(c, insertCartItem, arg.CartID, arg.ProductID, arg.Quantity)
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.ProductID,
		&i.Quantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findCartItemById = `-- name: FindCartItemById :one
SELECT id, cart_id, product_id, quantity, created_at, updated_at
FROM cart_items
WHERE id = $1 AND cart_id = $2
`

type FindCartItemByIdParams struct {
	ID     uuid.UUID `json:"id"`
	CartID uuid.UUID `json:"cart_id"`
}

func (q *Queries) FindCartItemById(c context.Context, arg FindCartItemByIdParams) (CartItem, error) {
	row := q.db.QueryRow(c, findCartItemById, arg.ID, arg.CartID)
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.ProductID,
		&i.Quantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findCartItemByProductId = `-- name: FindCartItemByProductId :one
SELECT id, cart_id, product_id, quantity, created_at, updated_at
FROM cart_items
WHERE cart_id = $1 AND product_id = $2
`

type FindCartItemByProductIdParams struct {
	CartID    uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
}

func (q *Queries) FindCartItemByProductId(
	c context.Context,
	arg FindCartItemByProductIdParams,
) (CartItem, error) {
	row := q.db.QueryRow(c, findCartItemByProductId, arg.CartID, arg.ProductID)
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.ProductID,
		&i.Quantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateCartItemQuantity = `-- name: UpdateCartItemQuantity :one
UPDATE cart_items
SET quantity = $2, updated_at = NOW()
WHERE id = $1
RETURNING id, cart_id, product_id, quantity, created_at, updated_at
`

type UpdateCartItemQuantityParams struct {
	ID       uuid.UUID `json:"id"`
	Quantity int32     `json:"quantity"`
}

func (q *Queries) UpdateCartItemQuantity(
	c context.Context,
	arg UpdateCartItemQuantityParams,
) (CartItem, error) {
	row := q.db.QueryRow(c, updateCartItemQuantity, arg.ID, arg.Quantity)
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.ProductID,
		&i.Quantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteCartItem = `-- name: DeleteCartItem :execrows
DELETE FROM cart_items WHERE id = $1
`

func (q *Queries) DeleteCartItem(c context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(c, deleteCartItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteCartItemsByCartId = `-- name: DeleteCartItemsByCartId :execrows
DELETE FROM cart_items WHERE cart_id = $1
`

func (q *Queries) DeleteCartItemsByCartId(c context.Context, cartID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(c, deleteCartItemsByCartId, cartID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const findCartItemsWithProduct = `-- name: FindCartItemsWithProduct :many
SELECT ci.id, ci.product_id, ci.quantity, p.name, p.price
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.created_at, ci.id
`

type FindCartItemsWithProductRow struct {
	ID        uuid.UUID      `json:"id"`
	ProductID uuid.UUID      `json:"product_id"`
	Quantity  int32          `json:"quantity"`
	Name      string         `json:"name"`
	Price     pgtype.Numeric `json:"price"`
}

// FindCartItemsWithProduct returns the items of a cart joined with the current
// name and unit price of their product.
func (q *Queries) FindCartItemsWithProduct(
	c context.Context,
	cartID uuid.UUID,
) ([]FindCartItemsWithProductRow, error) {
	rows, err := q.db.Query(c, findCartItemsWithProduct, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FindCartItemsWithProductRow{}
	for rows.Next() {
		var i FindCartItemsWithProductRow
		if err := rows.Scan(
			&i.ID,
			&i.ProductID,
			&i.Quantity,
			&i.Name,
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
