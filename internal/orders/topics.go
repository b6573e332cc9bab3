package orders

const (
	TopicOrderCreated      = "shop.order.created"
	TopicOrderConfirmed    = "shop.order.confirmed"
	TopicOrderCancelled    = "shop.order.cancelled"
	TopicOrderFailed       = "shop.order.failed"
	TopicBookingCreated    = "garage.booking.created"
	TopicPaymentAuthorized = "payment.authorized"
	TopicPaymentFailed     = "payment.failed"
)

// Partition key = order_id supaya event satu order tetap berurutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
