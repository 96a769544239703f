package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var ErrAddressNotFound = errors.New("address not found")

const addressColumns = `id, user_id, label, region, city, street, zip_code, is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (*Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Region, &a.City, &a.Street,
		&a.ZipCode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type AddressInput struct {
	Label     *string `json:"label" validate:"omitempty,max=120"`
	Region    *string `json:"region" validate:"omitempty,max=120"`
	City      *string `json:"city" validate:"omitempty,max=120"`
	Street    *string `json:"street" validate:"omitempty,max=200"`
	ZipCode   *string `json:"zip_code" validate:"omitempty,max=20"`
	IsDefault *bool   `json:"is_default"`
}

func (r *Repo) ListAddresses(ctx context.Context, userID int64) ([]Address, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+addressColumns+` FROM addresses WHERE user_id=$1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CreateAddress inserts a new address; marking it default clears the user's
// previous default first so at most one row per user carries the flag.
func (r *Repo) CreateAddress(ctx context.Context, userID int64, in AddressInput) (*Address, error) {
	isDefault := in.IsDefault != nil && *in.IsDefault
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if isDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default=FALSE WHERE user_id=$1`, userID); err != nil {
			return nil, err
		}
	}
	a, err := scanAddress(tx.QueryRow(ctx, `
		INSERT INTO addresses(user_id, label, region, city, street, zip_code, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+addressColumns,
		userID, in.Label, in.Region, in.City, in.Street, in.ZipCode, isDefault))
	if err != nil {
		return nil, err
	}
	return a, tx.Commit(ctx)
}

// UpdateAddress patches an address the user owns. Missing rows and rows owned
// by someone else both come back as not found.
func (r *Repo) UpdateAddress(ctx context.Context, userID, id int64, in AddressInput) (*Address, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanAddress(tx.QueryRow(ctx, `
		SELECT `+addressColumns+` FROM addresses WHERE id=$1 AND user_id=$2 FOR UPDATE`, id, userID))
	if err != nil {
		return nil, err
	}

	isDefault := cur.IsDefault
	if in.IsDefault != nil {
		isDefault = *in.IsDefault
		if isDefault {
			if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default=FALSE WHERE user_id=$1`, userID); err != nil {
				return nil, err
			}
		}
	}

	a, err := scanAddress(tx.QueryRow(ctx, `
		UPDATE addresses SET
			label    = COALESCE($3, label),
			region   = COALESCE($4, region),
			city     = COALESCE($5, city),
			street   = COALESCE($6, street),
			zip_code = COALESCE($7, zip_code),
			is_default = $8,
			updated_at = now()
		WHERE id=$1 AND user_id=$2
		RETURNING `+addressColumns,
		id, userID, in.Label, in.Region, in.City, in.Street, in.ZipCode, isDefault))
	if err != nil {
		return nil, err
	}
	return a, tx.Commit(ctx)
}

func (r *Repo) DeleteAddress(ctx context.Context, userID, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM addresses WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrAddressNotFound
	}
	return nil
}
