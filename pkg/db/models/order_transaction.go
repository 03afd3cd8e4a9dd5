package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/enums"
)

// OrderTransaction is a money movement against an order: the capture at
// checkout, and refunds issued on cancellation or adjustment.
type OrderTransaction struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	Kind        enums.TransactionKind `gorm:"column:kind;not null"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentType enums.PaymentType     `gorm:"column:payment_type;not null"`
	Reference   *string               `gorm:"column:reference"`
	Note        *string               `gorm:"column:note"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
