package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // ADMIN, CUSTOMER
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Manages the catalog and users",
	},
	{
		Code:        RoleCustomer,
		Name:        "Customer",
		Description: "Browses the catalog and likes products",
	},
}

// DefaultRolePrivileges lists the privilege codes seeded for each role.
// A nil entry means every privilege.
var DefaultRolePrivileges = map[string][]string{
	RoleAdmin:    nil,
	RoleCustomer: {PrivilegeProductLike},
}
