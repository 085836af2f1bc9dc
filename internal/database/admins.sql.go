package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const adminColumns = `id, email, password_hash, role, is_active, created_at, updated_at`

func scanAdmin(row pgx.Row) (AdminUser, error) {
	var i AdminUser
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.Role,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAdminByEmail = `-- name: GetAdminByEmail :one
SELECT ` + adminColumns + ` FROM admin_users WHERE lower(email) = lower($1)`

func (q *Queries) GetAdminByEmail(ctx context.Context, email string) (AdminUser, error) {
	return scanAdmin(q.db.QueryRow(ctx, getAdminByEmail, email))
}

const getAdminByID = `-- name: GetAdminByID :one
SELECT ` + adminColumns + ` FROM admin_users WHERE id = $1`

func (q *Queries) GetAdminByID(ctx context.Context, id int64) (AdminUser, error) {
	return scanAdmin(q.db.QueryRow(ctx, getAdminByID, id))
}

const upsertAdmin = `-- name: UpsertAdmin :one
INSERT INTO admin_users (email, password_hash, role, is_active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (email) DO UPDATE
SET password_hash = EXCLUDED.password_hash,
    role = EXCLUDED.role,
    is_active = TRUE,
    updated_at = now()
RETURNING ` + adminColumns

type UpsertAdminParams struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

func (q *Queries) UpsertAdmin(ctx context.Context, arg UpsertAdminParams) (AdminUser, error) {
	return scanAdmin(q.db.QueryRow(ctx, upsertAdmin, arg.Email, arg.PasswordHash, arg.Role))
}

const updateAdminPassword = `-- name: UpdateAdminPassword :exec
UPDATE admin_users SET password_hash = $2, updated_at = now() WHERE id = $1`

type UpdateAdminPasswordParams struct {
	ID           int64  `json:"id"`
	PasswordHash string `json:"password_hash"`
}

func (q *Queries) UpdateAdminPassword(ctx context.Context, arg UpdateAdminPasswordParams) error {
	_, err := q.db.Exec(ctx, updateAdminPassword, arg.ID, arg.PasswordHash)
	return err
}
