package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole governs endpoint authorization.
type UserRole string

const (
	RoleSuperAdmin         UserRole = "SUPER_ADMIN"
	RoleTraveler           UserRole = "TRAVELER"
	RoleSupplier           UserRole = "SUPPLIER"
	RoleAssociationManager UserRole = "ASSOCIATION_MANAGER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTraveler, RoleSupplier, RoleAssociationManager:
		return true
	}
	return false
}

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
	UserDeleted   UserStatus = "DELETED"
)

// User represents an account on the Wayfare platform.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Bio       string         `json:"bio"`
	Avatar    string         `json:"avatar"`
	Country   string         `json:"country"`
	Phone     string         `json:"phone,omitempty"`
	Role      UserRole       `gorm:"type:varchar(32);not null;default:'TRAVELER';index" json:"role"`
	Status    UserStatus     `gorm:"type:varchar(16);not null;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user holds the back-office role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// CanSupply reports whether the user may own accommodation listings.
func (u *User) CanSupply() bool {
	return u.Role == RoleSupplier || u.Role == RoleSuperAdmin
}

// CanManageEvents reports whether the user may create and manage events.
func (u *User) CanManageEvents() bool {
	return u.Role == RoleAssociationManager || u.Role == RoleSuperAdmin
}
