package repository

import (
	"context"

	"github.com/google/uuid"
)

const insertUser = `-- name: InsertUser :one
INSERT INTO users (name, email, password, address, phone_number)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, email, password, address, phone_number, created_at, updated_at
`

type InsertUserParams struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

func (q *Queries) InsertUser(c context.Context, arg InsertUserParams) (User, error) {
	row := q.db.QueryRow(c, insertUser,
		arg.Name,
		arg.Email,
		arg.Password,
		arg.Address,
		arg.PhoneNumber,
	)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Password,
		&i.Address,
		&i.PhoneNumber,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findUserByEmail = `-- name: FindUserByEmail :one
SELECT id, name, email, password, address, phone_number, created_at, updated_at
FROM users
WHERE email = $1
`

func (q *Queries) FindUserByEmail(c context.Context, email string) (User, error) {
	row := q.db.QueryRow(c, findUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Password,
		&i.Address,
		&i.PhoneNumber,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const findUserById = `-- name: FindUserById :one
SELECT id, name, email, password, address, phone_number, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) FindUserById(c context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(c, findUserById, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Password,
		&i.Address,
		&i.PhoneNumber,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateUser = `-- name: UpdateUser :one
UPDATE users
SET name = $2, email = $3, password = $4, address = $5, phone_number = $6, updated_at = NOW()
WHERE id = $1
RETURNING id, name, email, password, address, phone_number, created_at, updated_at
`

type UpdateUserParams struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	Address     string    `json:"address"`
	PhoneNumber string    `json:"phone_number"`
}

func (q *Queries) UpdateUser(c context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(c, updateUser,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.Password,
		arg.Address,
		arg.PhoneNumber,
	)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Password,
		&i.Address,
		&i.PhoneNumber,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteUser = `-- name: DeleteUser :execrows
DELETE FROM users WHERE id = $1
`

func (q *Queries) DeleteUser(c context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(c, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
