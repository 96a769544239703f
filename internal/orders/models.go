package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	AddressID      *int64          `json:"address_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Status         Status          `json:"status"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem is immutable after creation. unit_price is the product price
// snapshot taken inside the checkout transaction, never re-read later.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LedgerEntry is an append-only stock movement fact. Rows are never deleted;
// order_id is NULL until the checkout transaction links them.
type LedgerEntry struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	OrderID   *int64    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Payment struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	Provider    string          `json:"provider"`
	Amount      decimal.Decimal `json:"amount"`
	Status      PaymentState    `json:"status"`
	ProviderRef *string         `json:"provider_ref"`
	Payload     []byte          `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

const LedgerReasonOrder = "order"
