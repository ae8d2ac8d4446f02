package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertProduct = `-- name: InsertProduct :one
INSERT INTO products (name, description, price, stock_quantity, category)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, description, price, stock_quantity, category, created_at, updated_at
`

type InsertProductParams struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         pgtype.Numeric `json:"price"`
	StockQuantity int32          `json:"stock_quantity"`
	Category      string         `json:"category"`
}

func (q *Queries) InsertProduct(c context.Context, arg InsertProductParams) (Product, error) {
	row := q.db.QueryRow(c, insertProduct,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.StockQuantity,
		arg.Category,
	)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.StockQuantity,
		&i.Category,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findProducts = `-- name: FindProducts :many
SELECT id, name, description, price, stock_quantity, category, created_at, updated_at
FROM products
WHERE ($1::text = '' OR category = $1::text)
ORDER BY created_at, id
`

// FindProducts lists every product, or only the ones in category when it is
// not empty.
func (q *Queries) FindProducts(c context.Context, category string) ([]Product, error) {
	rows, err := q.db.Query(c, findProducts, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.Price,
			&i.StockQuantity,
			&i.Category,
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

const findProductById = `-- name: FindProductById :one
SELECT id, name, description, price, stock_quantity, category, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) FindProductById(c context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(c, findProductById, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.StockQuantity,
		&i.Category,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findProductByIdForUpdate = `-- name: FindProductByIdForUpdate :one
SELECT id, name, description, price, stock_quantity, category, created_at, updated_at
FROM products
WHERE id = $1
FOR UPDATE
`

func (q *Queries) FindProductByIdForUpdate(c context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(c, findProductByIdForUpdate, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.StockQuantity,
		&i.Category,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateProduct = `-- name: UpdateProduct :one
UPDATE products
SET name = $2, description = $3, price = $4, stock_quantity = $5, category = $6, updated_at = NOW()
WHERE id = $1
RETURNING id, name, description, price, stock_quantity, category, created_at, updated_at
`

type UpdateProductParams struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         pgtype.Numeric `json:"price"`
	StockQuantity int32          `json:"stock_quantity"`
	Category      string         `json:"category"`
}

func (q *Queries) UpdateProduct(c context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(c, updateProduct,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.StockQuantity,
		arg.Category,
	)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.StockQuantity,
		&i.Category,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const adjustProductStock = `-- name: AdjustProductStock :one
UPDATE products
SET stock_quantity = stock_quantity + $2, updated_at = NOW()
WHERE id = $1
RETURNING stock_quantity
`

type AdjustProductStockParams struct {
	ID    uuid.UUID `json:"id"`
	Delta int32     `json:"delta"`
}

// AdjustProductStock adds Delta to the stock of a product and returns the new
// stock. A negative Delta reserves stock, a positive one releases it.
func (q *Queries) AdjustProductStock(c context.Context, arg AdjustProductStockParams) (int32, error) {
	row := q.db.QueryRow(c, adjustProductStock, arg.ID, arg.Delta)
	var stockQuantity int32
	err := row.Scan(&stockQuantity)
	return stockQuantity, err
}

const countOrderDetailsByProductId = `-- name: CountOrderDetailsByProductId :one
SELECT COUNT(*) FROM order_details WHERE product_id = $1
`

func (q *Queries) CountOrderDetailsByProductId(c context.Context, productID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(c, countOrderDetailsByProductId, productID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteProduct = `-- name: DeleteProduct :execrows
DELETE FROM products WHERE id = $1
`

func (q *Queries) DeleteProduct(c context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(c, deleteProduct, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
