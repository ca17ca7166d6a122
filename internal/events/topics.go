package events

// Inbound command and saga-reply topics. Outbound topics are the event
// patterns themselves (see domain.Pattern* constants).
const (
	TopicOrdersCreate  = "orders.create"
	TopicOrdersConfirm = "orders.confirm"
	TopicOrdersCancel  = "orders.cancel"
	TopicOrdersShip    = "orders.ship"
	TopicOrdersDeliver = "orders.deliver"
	TopicStockReserved = "stock.reserved"
	TopicStockRejected = "stock.rejected"
)

const deadLetterSuffix = ".dlq"

// DeadLetterTopic returns the sibling dead-letter topic of a topic.
func DeadLetterTopic(topic string) string {
	return topic + deadLetterSuffix
}

// InboundTopics lists every topic the service consumes.
func InboundTopics() []string {
	return []string{
		TopicOrdersCreate,
		TopicOrdersConfirm,
		TopicOrdersCancel,
		TopicOrdersShip,
		TopicOrdersDeliver,
		TopicStockReserved,
		TopicStockRejected,
	}
}
