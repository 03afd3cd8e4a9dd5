package enums

// StaffRole controls back-office permissions.
type StaffRole string

const (
	StaffRoleAdmin   StaffRole = "admin"
	StaffRoleManager StaffRole = "manager"
	StaffRoleStaff   StaffRole = "staff"
)

func (r StaffRole) String() string {
	return string(r)
}

func (r StaffRole) IsValid() bool {
	switch r {
	case StaffRoleAdmin, StaffRoleManager, StaffRoleStaff:
		return true
	}
	return false
}

// CanManageCatalog reports whether the role may mutate products, pricing
// and promotions.
func (r StaffRole) CanManageCatalog() bool {
	return r == StaffRoleAdmin || r == StaffRoleManager
}

// ParseStaffRole converts a raw string into a StaffRole.
func ParseStaffRole(raw string) (StaffRole, bool) {
	role := StaffRole(raw)
	return role, role.IsValid()
}
