package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/enums"
)

// Variant is a purchasable SKU. Order flows only read its pricing; price
// edits happen through product administration.
type Variant struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Product      *Product        `gorm:"foreignKey:ProductID"`
	SKU          string          `gorm:"column:sku;uniqueIndex;not null"`
	Name         string          `gorm:"column:name;not null"`
	RegularPrice decimal.Decimal `gorm:"column:regular_price;type:numeric(12,2);not null"`
	// SalePrice of exactly zero means "no sale"; the zero value is not a
	// data error.
	SalePrice     decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null;default:0"`
	WeightGrams   int             `gorm:"column:weight_grams;not null;default:0"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	SegmentPrices []SegmentPrice  `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	BulkPrices    []BulkPrice     `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// SegmentPrice overrides a variant's price for one collapsed pricing tier.
// At most one row exists per (variant, customer type).
type SegmentPrice struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID    uuid.UUID          `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:ux_segment_prices_variant_type"`
	CustomerType enums.CustomerType `gorm:"column:customer_type;type:text;not null;uniqueIndex:ux_segment_prices_variant_type"`
	RegularPrice decimal.Decimal    `gorm:"column:regular_price;type:numeric(12,2);not null"`
	SalePrice    decimal.Decimal    `gorm:"column:sale_price;type:numeric(12,2);not null;default:0"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// BulkPrice is a quantity-range price tier, independent of customer type.
// Tiers are scanned in ascending min_qty order; the first qualifying tier
// wins even when ranges overlap.
type BulkPrice struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID uuid.UUID       `gorm:"column:variant_id;type:uuid;not null;index"`
	MinQty    int             `gorm:"column:min_qty;not null"`
	MaxQty    *int            `gorm:"column:max_qty"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
