// internal/domain/user/entity.go
package user

import (
	"time"

	"gorm.io/gorm"
)

// Role represents a staff member's role
type Role string

const (
	RolePharmacist Role = "pharmacist"
	RoleDoctor     Role = "doctor"
	RoleAdmin      Role = "admin"
)

// User represents a hospital staff member
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	HospitalID   uint           `gorm:"not null;index" json:"hospital_id"`
	Email        string         `gorm:"uniqueIndex;not null;size:100" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	FirstName    string         `gorm:"size:50" json:"first_name"`
	LastName     string         `gorm:"size:50" json:"last_name"`
	Role         Role           `gorm:"default:'pharmacist'" json:"role"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin checks whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
