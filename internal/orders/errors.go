package orders

import "errors"

// Checkout failure taxonomy. Everything here rolls back the whole transaction;
// retries are the client's job via the idempotency key.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockRace means the guarded decrement matched zero rows: the stock
	// changed under us despite the row lock. The CAS guard is the actual
	// correctness invariant; the lock only keeps contention latency down.
	ErrStockRace = errors.New("stock race")

	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("invalid input")
)
