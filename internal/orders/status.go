package orders

type Status string

const (
	StatusCreated   Status = "created"
	StatusCancelled Status = "cancelled"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentState is the state of a single payment attempt, distinct from the
// order-level PaymentStatus.
type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateSucceeded PaymentState = "succeeded"
	PaymentStateFailed    PaymentState = "failed"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusCreated, StatusCancelled, StatusShipping, StatusDelivered, StatusCompleted:
		return true
	}
	return false
}

// validNext covers the non-admin transitions. Admin status updates bypass this
// table entirely and only check enum membership.
var validNext = map[Status]map[Status]bool{
	StatusCreated:   {StatusCancelled: true, StatusShipping: true},
	StatusShipping:  {StatusDelivered: true},
	StatusDelivered: {StatusCompleted: true},
	StatusCancelled: {},
	StatusCompleted: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// CanCancel: cancelling is only allowed before the order moved past created.
func CanCancel(from Status) bool {
	return CanTransition(from, StatusCancelled)
}
