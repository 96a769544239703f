package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrCategoryExists = errors.New("category exists")
)

type Repo struct{ DB *pgxpool.Pool }

const categoryColumns = `id, name, icon, created_at, updated_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repo) CreateCategory(ctx context.Context, name string, icon *string) (*Category, error) {
	_, err := scanCategory(r.DB.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name=$1`, name))
	if err == nil {
		return nil, ErrCategoryExists
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return scanCategory(r.DB.QueryRow(ctx, `
		INSERT INTO categories(name, icon) VALUES ($1, $2) RETURNING `+categoryColumns, name, icon))
}

func (r *Repo) UpdateCategory(ctx context.Context, id int64, name string, icon *string) (*Category, error) {
	return scanCategory(r.DB.QueryRow(ctx, `
		UPDATE categories SET name=$2, icon=$3, updated_at=now()
		WHERE id=$1 RETURNING `+categoryColumns, id, name, icon))
}

func (r *Repo) DeleteCategory(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
