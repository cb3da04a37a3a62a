// internal/domain/customer/entity.go
package customer

import (
	"database/sql"
	"time"
)

// Customer is a registered account a contract may reference. Contract flows
// only need lookups by id and phone; there is no general customer CRUD here.
type Customer struct {
	ID        int64          `json:"id" db:"id"`
	FullName  string         `json:"full_name" db:"full_name"`
	Phone     string         `json:"phone" db:"phone"`
	Email     sql.NullString `json:"email,omitempty" db:"email"`
	Address   sql.NullString `json:"address,omitempty" db:"address"`
	IsActive  bool           `json:"is_active" db:"is_active"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}
