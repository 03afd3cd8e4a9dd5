package enums

// OutboxEventType names a domain event stored in the outbox.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
	EventOrderShipped       OutboxEventType = "order.shipped"
	EventOrderDelivered     OutboxEventType = "order.delivered"
	EventStockLow           OutboxEventType = "inventory.stock_low"
	EventErpProductSync     OutboxEventType = "erp.product_sync"
	EventCustomerSpending   OutboxEventType = "customer.spending_updated"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder     OutboxAggregateType = "order"
	AggregateInventory OutboxAggregateType = "inventory"
	AggregateProduct   OutboxAggregateType = "product"
	AggregateCustomer  OutboxAggregateType = "customer"
)

// OutboxStatus tracks publication progress of an outbox row.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxDLQErrorReason explains why an event was parked in the DLQ.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)
