package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/outbox"
)

// CreateOrderItemInput is one requested line. Any client-supplied price is
// deliberately absent: unit prices are always resolved server-side.
type CreateOrderItemInput struct {
	VariantID uuid.UUID
	Quantity  int
}

// CreateOrderInput carries everything checkout needs to place an order.
type CreateOrderInput struct {
	CustomerID        uuid.UUID
	BillingAddressID  uuid.UUID
	ShippingAddressID uuid.UUID
	Items             []CreateOrderItemInput
	PaymentType       enums.PaymentType

	// DiscountAmount is a manual staff discount; a valid CouponCode replaces
	// it entirely. ShippingAmount, when set, wins over the computed rate.
	// TaxAmount, when set, wins over the resolved destination rate.
	DiscountAmount *decimal.Decimal
	ShippingAmount *decimal.Decimal
	TaxAmount      *decimal.Decimal
	CouponCode     *string

	SalesChannelID *uuid.UUID
	PartnerOrderID *string
	Notes          *string

	// SkipReservation leaves stock untouched for flows that reserve later,
	// such as manual-invoice orders.
	SkipReservation bool

	Actor *outbox.ActorRef
}

// UpdateStatusInput moves an order along the transition table.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	To      enums.OrderStatus
	Detail  string
	Actor   *outbox.ActorRef
}

// AdjustInput rewrites order money columns. Nil fields keep their value.
type AdjustInput struct {
	OrderID        uuid.UUID
	DiscountAmount *decimal.Decimal
	ShippingAmount *decimal.Decimal
	TaxAmount      *decimal.Decimal
	Actor          *outbox.ActorRef
}

// RecordTransactionInput appends a money movement to an order.
type RecordTransactionInput struct {
	OrderID     uuid.UUID
	Kind        enums.TransactionKind
	Amount      decimal.Decimal
	PaymentType enums.PaymentType
	Reference   *string
	Note        *string
}
