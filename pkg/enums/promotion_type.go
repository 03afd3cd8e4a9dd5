package enums

import "fmt"

// PromotionType identifies how a promotion's discount is computed.
type PromotionType string

const (
	PromotionTypePercentage     PromotionType = "percentage"
	PromotionTypeFixedAmount    PromotionType = "fixed_amount"
	PromotionTypeFreeShipping   PromotionType = "free_shipping"
	PromotionTypeBogo           PromotionType = "bogo"
	PromotionTypeVolumeDiscount PromotionType = "volume_discount"
)

var validPromotionTypes = []PromotionType{
	PromotionTypePercentage,
	PromotionTypeFixedAmount,
	PromotionTypeFreeShipping,
	PromotionTypeBogo,
	PromotionTypeVolumeDiscount,
}

// String implements fmt.Stringer.
func (p PromotionType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionType.
func (p PromotionType) IsValid() bool {
	for _, candidate := range validPromotionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionType converts raw input into a PromotionType.
func ParsePromotionType(value string) (PromotionType, error) {
	for _, candidate := range validPromotionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion type %q", value)
}
