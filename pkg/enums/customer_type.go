package enums

import "fmt"

// CustomerType segments customers for pricing and promotion eligibility.
type CustomerType string

const (
	CustomerTypeB2C         CustomerType = "B2C"
	CustomerTypeB2B         CustomerType = "B2B"
	CustomerTypeEnterprise1 CustomerType = "ENTERPRISE_1"
	CustomerTypeEnterprise2 CustomerType = "ENTERPRISE_2"
)

var validCustomerTypes = []CustomerType{
	CustomerTypeB2C,
	CustomerTypeB2B,
	CustomerTypeEnterprise1,
	CustomerTypeEnterprise2,
}

// String implements fmt.Stringer.
func (c CustomerType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CustomerType.
func (c CustomerType) IsValid() bool {
	for _, candidate := range validCustomerTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomerType converts raw input into a CustomerType.
func ParseCustomerType(value string) (CustomerType, error) {
	for _, candidate := range validCustomerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer type %q", value)
}

// PricingTier collapses raw customer types into the tier segment prices are
// keyed by: B2B shares the B2C tier and ENTERPRISE_2 shares the ENTERPRISE_1
// tier. Unknown types collapse to B2C.
func (c CustomerType) PricingTier() CustomerType {
	switch c {
	case CustomerTypeB2B:
		return CustomerTypeB2C
	case CustomerTypeEnterprise2:
		return CustomerTypeEnterprise1
	case CustomerTypeB2C, CustomerTypeEnterprise1:
		return c
	default:
		return CustomerTypeB2C
	}
}

// IsWholesale reports whether the raw type is a non-retail type. This is
// deliberately keyed on the raw type, not the collapsed tier: a B2B customer
// shares the B2C segment row but never receives the retail sale price when
// falling back to the variant base price.
func (c CustomerType) IsWholesale() bool {
	switch c {
	case CustomerTypeB2B, CustomerTypeEnterprise1, CustomerTypeEnterprise2:
		return true
	}
	return false
}
