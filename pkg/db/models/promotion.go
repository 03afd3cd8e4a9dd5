package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/types"
)

// Promotion is a discount campaign. Code is stored upper-cased and trimmed;
// lookups normalize the same way. UsageCount only moves through the
// conditional increment in the promotions service, inside the order
// transaction, so a usage_limit is never oversubscribed.
type Promotion struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string              `gorm:"column:name;not null"`
	Code           *string             `gorm:"column:code;uniqueIndex"`
	Type           enums.PromotionType `gorm:"column:type;not null"`
	DiscountValue  decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,2);not null;default:0"`
	MaxDiscount    *decimal.Decimal    `gorm:"column:max_discount;type:numeric(12,2)"`
	MinOrderAmount *decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(12,2)"`
	UsageLimit     *int                `gorm:"column:usage_limit"`
	UsageCount     int                 `gorm:"column:usage_count;not null;default:0"`
	IsActive       bool                `gorm:"column:is_active;not null;default:true"`
	StartsAt       *time.Time          `gorm:"column:starts_at"`
	EndsAt         *time.Time          `gorm:"column:ends_at"`

	// CustomerTypes restricts eligibility to raw customer types when
	// non-empty. IsForIndividualCustomer marks the coupon private; a coupon
	// with customer rows is treated as private even when the flag is off.
	CustomerTypes           types.StringList `gorm:"column:customer_types;type:jsonb"`
	IsForIndividualCustomer bool             `gorm:"column:is_for_individual_customer;not null;default:false"`

	// BOGO parameters; unused for other types.
	BuyQuantity int              `gorm:"column:buy_quantity;not null;default:0"`
	GetQuantity int              `gorm:"column:get_quantity;not null;default:0"`
	GetDiscount *decimal.Decimal `gorm:"column:get_discount;type:numeric(12,2)"`

	ProductRules []PromotionProductRule `gorm:"foreignKey:PromotionID"`
	VolumeTiers  []PromotionVolumeTier  `gorm:"foreignKey:PromotionID"`
	Customers    []PromotionCustomer    `gorm:"foreignKey:PromotionID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ActiveAt reports whether the promotion window covers now. Nil bounds are
// open-ended.
func (p Promotion) ActiveAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

// PromotionProductRule scopes a promotion to products. A promotion with no
// rules applies to the whole order. Role only matters for BOGO.
type PromotionProductRule struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PromotionID uuid.UUID      `gorm:"column:promotion_id;type:uuid;not null;index"`
	ProductID   uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	Role        enums.BogoRole `gorm:"column:role;not null;default:both"`
}

// PromotionVolumeTier is one quantity break for a volume promotion. The
// evaluator scans tiers in ascending MinQuantity order and the last tier the
// eligible quantity reaches wins.
type PromotionVolumeTier struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PromotionID   uuid.UUID           `gorm:"column:promotion_id;type:uuid;not null;index"`
	MinQuantity   int                 `gorm:"column:min_quantity;not null"`
	Type          enums.VolumeTierType `gorm:"column:type;not null"`
	DiscountValue decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,2);not null"`
}

// PromotionCustomer restricts a promotion to specific customers. No rows
// means no restriction.
type PromotionCustomer struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PromotionID uuid.UUID `gorm:"column:promotion_id;type:uuid;not null;uniqueIndex:ux_promotion_customers"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:ux_promotion_customers"`
}
