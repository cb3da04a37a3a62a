// internal/domain/staff/entity.go
package staff

import (
	"time"
)

// Staff roles. Role membership drives both route access and notification
// fan-out targeting.
const (
	RoleServiceStaff   = "service_staff"
	RoleTechnicalStaff = "technical_staff"
	RoleCashier        = "cashier"
	RoleAdmin          = "admin"
)

type Account struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Phone        string    `json:"phone" db:"phone"`
	Roles        []string  `json:"roles" db:"roles"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HasRole checks role membership.
func (a *Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
