package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Togather-Foundation/booking/internal/auth"
	"github.com/Togather-Foundation/booking/internal/domain/users"
)

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ users.Repository = (*UserRepository)(nil)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		u    users.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = auth.NormalizeRole(role)
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user users.User) (_ *users.User, err error) {
	defer func(start time.Time) { recordQuery("users_create", start, err) }(time.Now())
	row := pick(r.pool, r.tx).QueryRow(ctx, `
INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
VALUES ($1, $2, lower($3), $4, $5, $6, $7)
RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		if _, ok := constraintViolation(err, codeUniqueViolation); ok {
			return nil, users.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (_ *users.User, err error) {
	defer func(start time.Time) { recordQuery("users_get", start, err) }(time.Now())
	row := pick(r.pool, r.tx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.one(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (_ *users.User, err error) {
	defer func(start time.Time) { recordQuery("users_get_by_email", start, err) }(time.Now())
	row := pick(r.pool, r.tx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return r.one(row)
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role auth.Role) (_ *users.User, err error) {
	defer func(start time.Time) { recordQuery("users_set_role", start, err) }(time.Now())
	row := pick(r.pool, r.tx).QueryRow(ctx, `
UPDATE users
   SET role = $2, updated_at = now()
 WHERE id = $1
RETURNING `+userColumns, id, string(role))
	return r.one(row)
}

// List returns users ordered by creation time, optionally restricted to role.
func (r *UserRepository) List(ctx context.Context, role *auth.Role) (_ []users.User, err error) {
	defer func(start time.Time) { recordQuery("users_list", start, err) }(time.Now())
	var roleFilter string
	if role != nil {
		roleFilter = string(*role)
	}

	rows, err := pick(r.pool, r.tx).Query(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE ($1 = '' OR role = $1)
 ORDER BY created_at, id`, roleFilter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []users.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func (r *UserRepository) one(row pgx.Row) (*users.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
