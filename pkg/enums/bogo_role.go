package enums

import "fmt"

// BogoRole marks which side of a buy-get rule a product participates in.
type BogoRole string

const (
	BogoRoleBuy  BogoRole = "buy"
	BogoRoleGet  BogoRole = "get"
	BogoRoleBoth BogoRole = "both"
)

var validBogoRoles = []BogoRole{
	BogoRoleBuy,
	BogoRoleGet,
	BogoRoleBoth,
}

// String implements fmt.Stringer.
func (b BogoRole) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BogoRole.
func (b BogoRole) IsValid() bool {
	for _, candidate := range validBogoRoles {
		if candidate == b {
			return true
		}
	}
	return false
}

// CountsAsBuy reports whether items with this role satisfy the buy side.
func (b BogoRole) CountsAsBuy() bool {
	return b == BogoRoleBuy || b == BogoRoleBoth
}

// CountsAsGet reports whether items with this role can receive the discount.
func (b BogoRole) CountsAsGet() bool {
	return b == BogoRoleGet || b == BogoRoleBoth
}

// ParseBogoRole converts raw input into a BogoRole.
func ParseBogoRole(value string) (BogoRole, error) {
	for _, candidate := range validBogoRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bogo role %q", value)
}
