package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventPaymentSettled = "PaymentSettled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     int64  `json:"order_id"`
	UserID      int64  `json:"user_id"`
	TotalAmount string `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
}

type PaymentSettledPayload struct {
	OrderID     int64  `json:"order_id"`
	PaymentID   int64  `json:"payment_id"`
	Provider    string `json:"provider"`
	Status      string `json:"status"` // succeeded | failed
	ProviderRef string `json:"provider_ref,omitempty"`
}
