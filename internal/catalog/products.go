package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const productColumns = `id, category_id, name, description, price::text, stock_qty, status, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p        Product
		priceStr string
	)
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &priceStr,
		&p.StockQty, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("product %d price: %w", p.ID, err)
	}
	return &p, nil
}

type ProductInput struct {
	CategoryID  *int64  `json:"category_id"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description"`
	Price       string  `json:"price" validate:"required"`
	StockQty    int     `json:"stock_qty" validate:"min=0"`
	Status      *string `json:"status" validate:"omitempty,oneof=active archived"`
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.attachImages(ctx, out)
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	imgs, err := r.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images = imgs
	return p, nil
}

func (r *Repo) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	price, err := decimal.NewFromString(in.Price)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q", in.Price)
	}
	status := StatusActive
	if in.Status != nil {
		status = *in.Status
	}
	return scanProduct(r.DB.QueryRow(ctx, `
		INSERT INTO products(category_id, name, description, price, stock_qty, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		in.CategoryID, in.Name, in.Description, price.StringFixed(2), in.StockQty, status))
}

// UpdateProduct patches the given fields. Stock set through here is an admin
// correction and is not journaled; the checkout path owns ledgered movements.
func (r *Repo) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	price, err := decimal.NewFromString(in.Price)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q", in.Price)
	}
	return scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET
			category_id = $2,
			name        = $3,
			description = COALESCE($4, description),
			price       = $5,
			stock_qty   = $6,
			status      = COALESCE($7, status),
			updated_at  = now()
		WHERE id=$1 RETURNING `+productColumns,
		id, in.CategoryID, in.Name, in.Description, price.StringFixed(2), in.StockQty, in.Status))
}

// DeleteProduct removes the product and its image rows; callers are expected
// to remove the files themselves.
func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) attachImages(ctx context.Context, products []Product) ([]Product, error) {
	if len(products) == 0 {
		return products, nil
	}
	ids := make([]int64, len(products))
	idx := make(map[int64]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		idx[p.ID] = i
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, url, sort_order
		FROM product_images WHERE product_id = ANY($1)
		ORDER BY product_id, sort_order`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.SortOrder); err != nil {
			return nil, err
		}
		i := idx[img.ProductID]
		products[i].Images = append(products[i].Images, img)
	}
	return products, rows.Err()
}
