package models

import "time"

// Role is the capability set attached to a user account.
type Role string

const (
	RoleBuyer Role = "buyer"
	RoleAdmin Role = "admin"
)

// User represents a buyer or staff account.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Company   string    `json:"company,omitempty" gorm:"type:varchar(255)" validate:"omitempty,max=255"`
	Password  string    `json:"password,omitempty" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role      Role      `json:"role" gorm:"type:varchar(16);default:buyer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary is the buyer identity embedded in admin order listings.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Company  string `json:"company,omitempty"`
}

// Summary strips credentials from u.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, Company: u.Company}
}

// CanAdministerOrders is the authorization policy for pricing, status changes and reporting.
func CanAdministerOrders(role Role) bool {
	return role == RoleAdmin
}
