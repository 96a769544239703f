package orders

import "strconv"

const (
	TopicOrderCreated   = "order.created"
	TopicPaymentSettled = "order.payment.settled"
)

// Partition key = order_id so all events of one order keep their order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
