package events

// Topics emitted by this service.
const (
	TopicOrderCreated = "order.created"
	TopicRefundQuoted = "order.refund_quoted"
)
