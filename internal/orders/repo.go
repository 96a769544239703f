package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, user_id, address_id, total_amount::text, payment_status, status, idempotency_key, notes, created_at, updated_at`

const selectOrder = `SELECT ` + orderColumns + ` FROM orders`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o        Order
		totalStr string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &totalStr, &o.PaymentStatus,
		&o.Status, &o.IdempotencyKey, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.TotalAmount, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("order %d total: %w", o.ID, err)
	}
	return &o, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, selectOrder+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// List returns all orders for admins, or the user's own, newest first.
func (r *Repo) List(ctx context.Context, userID int64, isAdmin bool) ([]Order, error) {
	q := selectOrder + ` ORDER BY id DESC`
	var (
		rows pgx.Rows
		err  error
	)
	if isAdmin {
		rows, err = r.DB.Query(ctx, q)
	} else {
		rows, err = r.DB.Query(ctx, selectOrder+` WHERE user_id=$1 ORDER BY id DESC`, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) Items(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, qty, unit_price::text
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var (
			it       OrderItem
			priceStr string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &priceStr); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Cancel flips the order to cancelled, permitted only from created.
func (r *Repo) Cancel(ctx context.Context, id int64) (*Order, error) {
	o, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanCancel(o.Status) {
		return nil, fmt.Errorf("cannot cancel order in status %q: %w", o.Status, ErrInvalidStateTransition)
	}
	o2, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=now()
		WHERE id=$1 AND status=$3
		RETURNING `+orderColumns, id, StatusCancelled, StatusCreated))
	if errors.Is(err, pgx.ErrNoRows) {
		// lost the race to a concurrent transition
		return nil, fmt.Errorf("cannot cancel order %d: %w", id, ErrInvalidStateTransition)
	}
	return o2, err
}

// UpdateStatus is the admin-forced transition: only enum membership is
// checked, so an admin can correct a mis-set status.
func (r *Repo) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=now()
		WHERE id=$1 RETURNING `+orderColumns, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// Ledger returns the stock movements linked to an order.
func (r *Repo) Ledger(ctx context.Context, orderID int64) ([]LedgerEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, delta, reason, order_id, created_at
		FROM stock_ledger WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Delta, &e.Reason, &e.OrderID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
