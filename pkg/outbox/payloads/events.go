package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/centrelabs/backoffice/pkg/enums"
)

// OrderCreatedEvent signals a newly placed order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Total       string    `json:"total"`
	ItemCount   int       `json:"item_count"`
}

// OrderStatusChangedEvent is emitted on every status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderCancelledEvent is emitted when an order is cancelled and its
// reservations released or restocked.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Total       string    `json:"total"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderShippedEvent carries the fulfillment summary for shipment alerts.
type OrderShippedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	WarehouseID uuid.UUID `json:"warehouse_id,omitempty"`
	ShippedAt   time.Time `json:"shipped_at"`
}

// OrderDeliveredEvent closes out the fulfillment lifecycle.
type OrderDeliveredEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	DeliveredAt time.Time `json:"delivered_at"`
	Total       string    `json:"total"`
}

// StockLowEvent tells the notifications pipeline a variant crossed its
// low-stock threshold at one warehouse.
type StockLowEvent struct {
	VariantID   uuid.UUID `json:"variant_id"`
	SKU         string    `json:"sku"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Available   int       `json:"available"`
	Threshold   int       `json:"threshold"`
}

// ProductSyncEvent asks the ERP bridge to re-sync one product.
type ProductSyncEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Slug      string    `json:"slug"`
	SyncedAt  time.Time `json:"synced_at"`
}

// CustomerSpendingUpdatedEvent reports a delivered order folded into the
// customer's lifetime spend.
type CustomerSpendingUpdatedEvent struct {
	CustomerID uuid.UUID `json:"customer_id"`
	OrderID    uuid.UUID `json:"order_id"`
	TotalSpent string    `json:"total_spent"`
}
