package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

type ItemInput struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Qty       int   `json:"qty" validate:"required,min=1"`
}

type CheckoutInput struct {
	UserID         int64
	AddressID      *int64
	IdempotencyKey *string
	Notes          *string
	Items          []ItemInput
}

// lockedProduct is the snapshot read under FOR UPDATE. Stock is decremented
// in memory after each successful write so a later line for the same product
// validates against what is actually left, not the initial read.
type lockedProduct struct {
	ID     int64
	Price  decimal.Decimal
	Stock  int
	Status string
}

const productStatusActive = "active"

func validateLine(p *lockedProduct, productID int64, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: qty must be >= 1 for product %d", ErrValidation, productID)
	}
	if p == nil {
		return fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
	}
	if p.Status != productStatusActive {
		return fmt.Errorf("product %d: %w", productID, ErrProductInactive)
	}
	if p.Stock < qty {
		return fmt.Errorf("product %d: %w", productID, ErrInsufficientStock)
	}
	return nil
}

func lineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// Checkout atomically reserves stock for every line item, creates the order
// with its items and journals the movement in stock_ledger. Any failure rolls
// back the whole transaction: no stock is left decremented without an order,
// no order exists without matching ledger rows.
//
// An idempotency key makes the call safe to retry after a client timeout: a
// second call with the same key returns the first order and touches nothing.
func (r *Repo) Checkout(ctx context.Context, in CheckoutInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// idempotency short-circuit: an order with this key already exists
	if in.IdempotencyKey != nil && *in.IdempotencyKey != "" {
		o, err := scanOrder(tx.QueryRow(ctx, selectOrder+` WHERE idempotency_key=$1`, *in.IdempotencyKey))
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	// lock all referenced rows up front, in id order so two overlapping
	// checkouts always acquire locks in the same sequence
	ids := make([]int64, 0, len(in.Items))
	seen := make(map[int64]bool, len(in.Items))
	for _, it := range in.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	rows, err := tx.Query(ctx, `
		SELECT id, price::text, stock_qty, status
		FROM products WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*lockedProduct, len(ids))
	for rows.Next() {
		var (
			p        lockedProduct
			priceStr string
		)
		if err := rows.Scan(&p.ID, &priceStr, &p.Stock, &p.Status); err != nil {
			rows.Close()
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(priceStr); err != nil {
			rows.Close()
			return nil, fmt.Errorf("product %d price: %w", p.ID, err)
		}
		byID[p.ID] = &p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	total := decimal.Zero
	ledgerIDs := make([]int64, 0, len(in.Items))
	for _, it := range in.Items {
		p := byID[it.ProductID]
		if err := validateLine(p, it.ProductID, it.Qty); err != nil {
			return nil, err
		}

		// relative decrement with a compare-and-set guard re-checked at write
		// time. The row lock above means this should always match one row;
		// if it does not, a race slipped through and nothing may be kept.
		ct, err := tx.Exec(ctx, `
			UPDATE products SET stock_qty = stock_qty - $2, updated_at = now()
			WHERE id = $1 AND stock_qty >= $2`, it.ProductID, it.Qty)
		if err != nil {
			return nil, err
		}
		if ct.RowsAffected() != 1 {
			return nil, fmt.Errorf("product %d: %w", it.ProductID, ErrStockRace)
		}
		p.Stock -= it.Qty

		total = total.Add(lineTotal(p.Price, it.Qty))

		var lid int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO stock_ledger(product_id, delta, reason)
			VALUES ($1, $2, $3) RETURNING id`,
			it.ProductID, -it.Qty, LedgerReasonOrder).Scan(&lid); err != nil {
			return nil, err
		}
		ledgerIDs = append(ledgerIDs, lid)
	}

	// the stored total is rounded once at the end; unit prices stay as read
	total = total.Round(2)

	o, err := scanOrder(tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, address_id, total_amount, payment_status, status, idempotency_key, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderColumns,
		in.UserID, in.AddressID, total.StringFixed(2),
		PaymentPending, StatusCreated, nilIfEmpty(in.IdempotencyKey), in.Notes))
	if err != nil {
		return nil, err
	}

	for _, it := range in.Items {
		p := byID[it.ProductID]
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, unit_price)
			VALUES ($1, $2, $3, $4)`,
			o.ID, it.ProductID, it.Qty, p.Price.String()); err != nil {
			return nil, err
		}
	}

	// second phase of the ledger write: the order id did not exist when the
	// rows were inserted. Backfill by ledger primary key, never by product
	// scan, so a concurrent checkout cannot cross-link foreign rows.
	if _, err := tx.Exec(ctx, `
		UPDATE stock_ledger SET order_id = $1 WHERE id = ANY($2)`,
		o.ID, ledgerIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
