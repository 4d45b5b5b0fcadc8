// AngelaMos | 2026
// entity.go

package admin

import (
	"errors"
	"time"
)

const Collection = "admin_users"

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
)

var ErrInvalidRole = errors.New("invalid role")

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor:
		return true
	}
	return false
}

type Permission string

const (
	CanEditContent    Permission = "canEditContent"
	CanEditLayout     Permission = "canEditLayout"
	CanManageUsers    Permission = "canManageUsers"
	CanManageMedia    Permission = "canManageMedia"
	CanEditActivities Permission = "canEditActivities"
	CanViewAnalytics  Permission = "canViewAnalytics"
)

type Permissions struct {
	CanEditContent    bool `json:"canEditContent"    firestore:"canEditContent"`
	CanEditLayout     bool `json:"canEditLayout"     firestore:"canEditLayout"`
	CanManageUsers    bool `json:"canManageUsers"    firestore:"canManageUsers"`
	CanManageMedia    bool `json:"canManageMedia"    firestore:"canManageMedia"`
	CanEditActivities bool `json:"canEditActivities" firestore:"canEditActivities"`
	CanViewAnalytics  bool `json:"canViewAnalytics"  firestore:"canViewAnalytics"`
}

func AllPermissions() Permissions {
	return Permissions{
		CanEditContent:    true,
		CanEditLayout:     true,
		CanManageUsers:    true,
		CanManageMedia:    true,
		CanEditActivities: true,
		CanViewAnalytics:  true,
	}
}

func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case CanEditContent:
		return p.CanEditContent
	case CanEditLayout:
		return p.CanEditLayout
	case CanManageUsers:
		return p.CanManageUsers
	case CanManageMedia:
		return p.CanManageMedia
	case CanEditActivities:
		return p.CanEditActivities
	case CanViewAnalytics:
		return p.CanViewAnalytics
	}
	return false
}

type AdminUser struct {
	UID         string      `json:"uid"                 firestore:"uid"`
	Email       string      `json:"email"               firestore:"email"`
	Role        Role        `json:"role"                firestore:"role"`
	Permissions Permissions `json:"permissions"         firestore:"permissions"`
	CreatedAt   time.Time   `json:"createdAt"           firestore:"createdAt"`
	LastLogin   *time.Time  `json:"lastLogin,omitempty" firestore:"lastLogin,omitempty"`
}

// Can reports whether the admin holds perm. Super admins hold every
// permission regardless of their flags.
func (a *AdminUser) Can(perm Permission) bool {
	if a == nil {
		return false
	}
	return a.Role == RoleSuperAdmin || a.Permissions.Has(perm)
}

type GrantRequest struct {
	UID         string       `json:"uid"         validate:"required,max=128"`
	Email       string       `json:"email"       validate:"required,email"`
	Role        Role         `json:"role"        validate:"omitempty,oneof=super_admin admin editor"`
	Permissions *Permissions `json:"permissions"`
}

type AccessResponse struct {
	IsAdmin bool       `json:"is_admin"`
	Admin   *AdminUser `json:"admin,omitempty"`
}
