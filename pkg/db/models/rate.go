package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is a percentage applied to the taxable base for a destination.
// State rows take precedence over a country-wide row (state_code null).
type TaxRate struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CountryCode string          `gorm:"column:country_code;not null;uniqueIndex:ux_tax_rates_region"`
	StateCode   *string         `gorm:"column:state_code;uniqueIndex:ux_tax_rates_region"`
	RatePercent decimal.Decimal `gorm:"column:rate_percent;type:numeric(6,3);not null"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
}

// ShippingRate is a named shipping method with subtotal-keyed price tiers.
type ShippingRate struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string             `gorm:"column:name;not null"`
	CountryCode string             `gorm:"column:country_code;not null;index"`
	IsActive    bool               `gorm:"column:is_active;not null;default:true"`
	Tiers       []ShippingRateTier `gorm:"foreignKey:ShippingRateID"`
}

// ShippingRateTier prices one subtotal band. A nil MaxSubtotal means the
// band is open above MinSubtotal.
type ShippingRateTier struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShippingRateID uuid.UUID        `gorm:"column:shipping_rate_id;type:uuid;not null;index"`
	MinSubtotal    decimal.Decimal  `gorm:"column:min_subtotal;type:numeric(12,2);not null"`
	MaxSubtotal    *decimal.Decimal `gorm:"column:max_subtotal;type:numeric(12,2)"`
	Price          decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
}
