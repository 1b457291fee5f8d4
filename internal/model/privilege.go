package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Product"
}

const (
	PrivilegeProductCreate = "product:create"
	PrivilegeProductUpdate = "product:update"
	PrivilegeProductDelete = "product:delete"
	PrivilegeProductLike   = "product:like"

	PrivilegeUserView            = "user:view"
	PrivilegeUserDelete          = "user:delete"
	PrivilegeUserUpdatePrivilege = "user:update_privilege"

	PrivilegeDashboardView = "dashboard:view"
)

var DefaultPrivileges = []Privilege{
	// Catalog
	{Code: PrivilegeProductCreate, Name: "Create Product"},
	{Code: PrivilegeProductUpdate, Name: "Update Product"},
	{Code: PrivilegeProductDelete, Name: "Delete Product"},
	{Code: PrivilegeProductLike, Name: "Like Product"},
	// User management
	{Code: PrivilegeUserView, Name: "View User"},
	{Code: PrivilegeUserDelete, Name: "Delete User"},
	{Code: PrivilegeUserUpdatePrivilege, Name: "Update User Privileges"},
	// Dashboard
	{Code: PrivilegeDashboardView, Name: "View Dashboard"},
}
