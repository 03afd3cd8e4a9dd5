package enums

import "fmt"

// VolumeTierType identifies how a volume-discount tier adjusts item prices.
type VolumeTierType string

const (
	VolumeTierTypePercentage  VolumeTierType = "percentage"
	VolumeTierTypeFixedAmount VolumeTierType = "fixed_amount"
	VolumeTierTypeFixedPrice  VolumeTierType = "fixed_price"
)

var validVolumeTierTypes = []VolumeTierType{
	VolumeTierTypePercentage,
	VolumeTierTypeFixedAmount,
	VolumeTierTypeFixedPrice,
}

// String implements fmt.Stringer.
func (v VolumeTierType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VolumeTierType.
func (v VolumeTierType) IsValid() bool {
	for _, candidate := range validVolumeTierTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVolumeTierType converts raw input into a VolumeTierType.
func ParseVolumeTierType(value string) (VolumeTierType, error) {
	for _, candidate := range validVolumeTierTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid volume tier type %q", value)
}
