package models

import "time"

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleModerator  = "moderator"
)

const (
	PermManageProducts    = "can_manage_products"
	PermManageOrders      = "can_manage_orders"
	PermManageUsers       = "can_manage_users"
	PermManageCategories  = "can_manage_categories"
	PermManageSubmissions = "can_manage_submissions"
	PermViewAnalytics     = "can_view_analytics"
)

// AdminUser is a row of admin_users joined with the identity email.
type AdminUser struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
	TOTPEnabled bool            `json:"totp_enabled"`
	TOTPSecret  string          `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AdminProfile is what the console caches as the current admin.
type AdminProfile struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
}

func (a *AdminUser) Profile() *AdminProfile {
	return &AdminProfile{
		ID:          a.ID,
		UserID:      a.UserID,
		Email:       a.Email,
		Role:        a.Role,
		Permissions: a.Permissions,
	}
}

// HasRole reports whether the admin holds any of roles.
func (a *AdminUser) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// HasPermission reports whether the admin may perform name. Super admins
// hold every permission.
func (a *AdminUser) HasPermission(name string) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.Permissions[name]
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSuperAdmin, RoleModerator:
		return true
	}
	return false
}

// DefaultPermissions is the permission set granted to a freshly created admin.
func DefaultPermissions() map[string]bool {
	return map[string]bool{
		PermManageProducts:    true,
		PermManageOrders:      true,
		PermManageUsers:       true,
		PermManageCategories:  true,
		PermManageSubmissions: true,
		PermViewAnalytics:     true,
	}
}

// UpdateAdminRequest changes an admin's role or permissions.
type UpdateAdminRequest struct {
	Role        *string         `json:"role,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}
