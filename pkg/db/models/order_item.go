package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots what was sold at what price. UnitPrice is the resolved
// price before any bulk break; when a bulk price applied, BulkUnitPrice and
// BulkTotalPrice carry the effective amounts and TotalPrice equals
// BulkTotalPrice. Product and variant names are denormalized so the record
// survives catalog edits.
type OrderItem struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID      uuid.UUID        `gorm:"column:variant_id;type:uuid;not null"`
	Variant        *Variant         `gorm:"foreignKey:VariantID"`
	SKU            string           `gorm:"column:sku;not null"`
	ProductName    string           `gorm:"column:product_name;not null"`
	VariantName    string           `gorm:"column:variant_name;not null"`
	Quantity       int              `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice     decimal.Decimal  `gorm:"column:total_price;type:numeric(12,2);not null"`
	BulkUnitPrice  *decimal.Decimal `gorm:"column:bulk_unit_price;type:numeric(12,2)"`
	BulkTotalPrice *decimal.Decimal `gorm:"column:bulk_total_price;type:numeric(12,2)"`
}

// EffectiveUnitPrice returns the bulk unit price when one applied, the
// resolved unit price otherwise.
func (i OrderItem) EffectiveUnitPrice() decimal.Decimal {
	if i.BulkUnitPrice != nil {
		return *i.BulkUnitPrice
	}
	return i.UnitPrice
}
