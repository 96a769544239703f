package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var ErrImageMismatch = errors.New("image does not belong to product")

func (r *Repo) ListImages(ctx context.Context, productID int64) ([]Image, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, url, sort_order
		FROM product_images WHERE product_id=$1 ORDER BY sort_order`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// AddImage appends an image after the product's current highest sort_order.
func (r *Repo) AddImage(ctx context.Context, productID int64, url string) (*Image, error) {
	var img Image
	err := r.DB.QueryRow(ctx, `
		INSERT INTO product_images(product_id, url, sort_order)
		VALUES ($1, $2, COALESCE((SELECT MAX(sort_order)+1 FROM product_images WHERE product_id=$1), 0))
		RETURNING id, product_id, url, sort_order`, productID, url).
		Scan(&img.ID, &img.ProductID, &img.URL, &img.SortOrder)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *Repo) GetImage(ctx context.Context, productID, imageID int64) (*Image, error) {
	var img Image
	err := r.DB.QueryRow(ctx, `
		SELECT id, product_id, url, sort_order
		FROM product_images WHERE id=$1 AND product_id=$2`, imageID, productID).
		Scan(&img.ID, &img.ProductID, &img.URL, &img.SortOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *Repo) DeleteImage(ctx context.Context, productID, imageID int64) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM product_images WHERE id=$1 AND product_id=$2`, imageID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ReorderItem struct {
	ID        int64 `json:"id" validate:"required"`
	SortOrder int   `json:"sort_order" validate:"min=0"`
}

// ReorderImages batch-updates sort_order. Every referenced image must belong
// to the product or nothing is changed.
func (r *Repo) ReorderImages(ctx context.Context, productID int64, items []ReorderItem) ([]Image, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range items {
		var owner int64
		err := tx.QueryRow(ctx, `SELECT product_id FROM product_images WHERE id=$1`, it.ID).Scan(&owner)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && owner != productID) {
			return nil, fmt.Errorf("image %d: %w", it.ID, ErrImageMismatch)
		}
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE product_images SET sort_order=$2 WHERE id=$1`, it.ID, it.SortOrder); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.ListImages(ctx, productID)
}
