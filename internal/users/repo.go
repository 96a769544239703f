package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrPhoneTaken = errors.New("phone already registered")
)

type Repo struct{ DB *pgxpool.Pool }

const userColumns = `id, uid, phone, password, name, is_admin, brightday, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.UID, &u.Phone, &u.Password, &u.Name, &u.IsAdmin,
		&u.Brightday, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new non-admin user with the already-hashed password.
func (r *Repo) Create(ctx context.Context, phone, hashedPassword string, name *string, brightday *time.Time) (*User, error) {
	if _, err := r.GetByPhone(ctx, phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return scanUser(r.DB.QueryRow(ctx, `
		INSERT INTO users(uid, phone, password, name, is_admin, brightday)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		RETURNING `+userColumns,
		uuid.NewString(), phone, hashedPassword, name, brightday))
}

func (r *Repo) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone=$1`, phone))
}

func (r *Repo) Get(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// List pages through users, admin-facing. limit is expected to be clamped by
// the caller.
func (r *Repo) List(ctx context.Context, page, limit int) ([]User, error) {
	offset := (page - 1) * limit
	rows, err := r.DB.Query(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateProfile(ctx context.Context, id int64, name *string, brightday *time.Time) (*User, error) {
	return scanUser(r.DB.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name), brightday = COALESCE($3, brightday), updated_at = now()
		WHERE id=$1 RETURNING `+userColumns, id, name, brightday))
}

func (r *Repo) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE users SET password=$2, updated_at=now() WHERE id=$1`, id, hashedPassword)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
