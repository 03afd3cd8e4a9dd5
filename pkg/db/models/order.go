package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/enums"
)

// Order is the financial record for a checkout. Monetary columns are frozen
// at creation; adjustments rewrite them in place while preserving the
// processor fee delta. Status is the single source of truth for fulfillment
// state and only moves along the transition table in internal/orders.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string            `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID        uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Customer          *Customer         `gorm:"foreignKey:CustomerID"`
	Status            enums.OrderStatus `gorm:"column:status;not null;default:pending;index"`
	Subtotal          decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount    decimal.Decimal   `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	ShippingAmount    decimal.Decimal   `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0"`
	TaxAmount         decimal.Decimal   `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount       decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ProcessorFee      decimal.Decimal   `gorm:"column:processor_fee;type:numeric(12,2);not null;default:0"`
	PaymentType       enums.PaymentType `gorm:"column:payment_type;not null"`
	CouponCode        *string           `gorm:"column:coupon_code"`
	PromotionID       *uuid.UUID        `gorm:"column:promotion_id;type:uuid"`
	BillingAddressID  *uuid.UUID        `gorm:"column:billing_address_id;type:uuid"`
	ShippingAddressID *uuid.UUID        `gorm:"column:shipping_address_id;type:uuid"`
	ShippingAddress   *Address          `gorm:"foreignKey:ShippingAddressID"`
	WarehouseID       *uuid.UUID        `gorm:"column:warehouse_id;type:uuid"`
	// SalesChannelID and PartnerOrderID together make channel ingestion
	// idempotent: a repeated partner order returns the existing record.
	SalesChannelID *uuid.UUID         `gorm:"column:sales_channel_id;type:uuid;uniqueIndex:ux_orders_channel_partner"`
	PartnerOrderID *string            `gorm:"column:partner_order_id;uniqueIndex:ux_orders_channel_partner"`
	Notes          *string            `gorm:"column:notes"`
	Items          []OrderItem        `gorm:"foreignKey:OrderID"`
	Reservations   []OrderReservation `gorm:"foreignKey:OrderID"`
	Transactions   []OrderTransaction `gorm:"foreignKey:OrderID"`
	ShippedAt      *time.Time         `gorm:"column:shipped_at"`
	DeliveredAt    *time.Time         `gorm:"column:delivered_at"`
	CancelledAt    *time.Time         `gorm:"column:cancelled_at"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
