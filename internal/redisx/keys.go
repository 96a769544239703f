package redisx

import "time"

const (
	// Checkout idempotency fast path: idem:checkout:{idempotency_key} -> order_id.
	// The orders.idempotency_key column stays the source of truth.
	KeyIdemCheckout = "idem:checkout:%s"

	// Order status cache: order_status:{order_id} -> {"status":...,"payment_status":...}
	KeyOrderStatus = "order_status:%d"

	// Event dedup for consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
