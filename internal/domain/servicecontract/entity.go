// internal/domain/servicecontract/entity.go
package servicecontract

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusSuspended  Status = "suspended"
	StatusTerminated Status = "terminated"
	StatusExpired    Status = "expired"
)

// WaterServiceContract is the ongoing billing relationship created when an
// installation contract completes. It anchors meter installations and
// invoicing once the installation contract is closed out.
type WaterServiceContract struct {
	ID             int64         `json:"id" db:"id"`
	ContractID     int64         `json:"contract_id" db:"contract_id"`
	ContractNumber string        `json:"contract_number" db:"contract_number"`
	CustomerID     sql.NullInt64 `json:"customer_id,omitempty" db:"customer_id"`
	Address        string        `json:"address" db:"address"`
	Status         Status        `json:"status" db:"status"`
	MonthlyFee     float64       `json:"monthly_fee" db:"monthly_fee"`
	StartDate      time.Time     `json:"start_date" db:"start_date"`
	EndDate        sql.NullTime  `json:"end_date,omitempty" db:"end_date"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}
