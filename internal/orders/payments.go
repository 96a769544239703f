package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, order_id, provider, amount::text, status, provider_ref, payload, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		p         Payment
		amountStr string
	)
	if err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &amountStr, &p.Status,
		&p.ProviderRef, &p.Payload, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("payment %d amount: %w", p.ID, err)
	}
	return &p, nil
}

// CreatePayment records a pending payment attempt for an order. Multiple
// attempts per order are allowed.
func (r *Repo) CreatePayment(ctx context.Context, orderID int64, provider string, amount decimal.Decimal) (*Payment, error) {
	if _, err := r.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return scanPayment(r.DB.QueryRow(ctx, `
		INSERT INTO payments(order_id, provider, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+paymentColumns,
		orderID, provider, amount.StringFixed(2), PaymentStatePending))
}

func (r *Repo) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	p, err := scanPayment(r.DB.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ApplyCallback records a provider callback against a payment and drives the
// linked order's payment state. The payment row is overwritten unconditionally
// and a succeeded callback forces the order to paid/shipping whatever its
// current status: there is no replay guard here. Known gap, kept deliberately.
func (r *Repo) ApplyCallback(ctx context.Context, paymentID int64, status PaymentState, provider, providerRef string) (*Payment, error) {
	pay, err := r.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]string{"provider": provider, "status": string(status)})
	pay, err = scanPayment(r.DB.QueryRow(ctx, `
		UPDATE payments SET status=$2, provider=$3, provider_ref=$4, payload=$5, updated_at=now()
		WHERE id=$1 RETURNING `+paymentColumns,
		paymentID, status, provider, providerRef, payload))
	if err != nil {
		return nil, err
	}

	switch status {
	case PaymentStateSucceeded:
		_, err = r.DB.Exec(ctx, `
			UPDATE orders SET payment_status=$2, status=$3, updated_at=now()
			WHERE id=$1`, pay.OrderID, PaymentPaid, StatusShipping)
	case PaymentStateFailed:
		_, err = r.DB.Exec(ctx, `
			UPDATE orders SET payment_status=$2, updated_at=now()
			WHERE id=$1`, pay.OrderID, PaymentFailed)
	}
	if err != nil {
		return nil, err
	}
	return pay, nil
}
