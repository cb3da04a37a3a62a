// internal/domain/contract/entity.go
package contract

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusDraft               Status = "draft"
	StatusPending             Status = "pending"
	StatusPendingSurveyReview Status = "pending_survey_review"
	StatusApproved            Status = "approved"
	StatusPendingSign         Status = "pending_sign"
	StatusSigned              Status = "signed"
	StatusInInstallation      Status = "in_installation"
	StatusActive              Status = "active"
	StatusExpired             Status = "expired"
	StatusTerminated          Status = "terminated"
	StatusSuspended           Status = "suspended"
	StatusAnnulled            Status = "annulled"
)

// Contract is an installation request/agreement progressing through the
// staff-driven approval pipeline. CustomerID is nullable: guest requests are
// keyed by contact phone and notes instead of a registered customer.
type Contract struct {
	ID             int64          `json:"id" db:"id"`
	ContractNumber string         `json:"contract_number" db:"contract_number"`
	CustomerID     sql.NullInt64  `json:"customer_id,omitempty" db:"customer_id"`
	ContactPhone   string         `json:"contact_phone" db:"contact_phone"`
	ContactName    sql.NullString `json:"contact_name,omitempty" db:"contact_name"`
	Address        string         `json:"address" db:"address"`
	Notes          sql.NullString `json:"notes,omitempty" db:"notes"`
	Status         Status         `json:"status" db:"status"`

	ServiceStaffID   sql.NullInt64 `json:"service_staff_id,omitempty" db:"service_staff_id"`
	TechnicalStaffID sql.NullInt64 `json:"technical_staff_id,omitempty" db:"technical_staff_id"`

	SurveyDate       sql.NullTime   `json:"survey_date,omitempty" db:"survey_date"`
	SurveyNotes      sql.NullString `json:"survey_notes,omitempty" db:"survey_notes"`
	SignedAt         sql.NullTime   `json:"signed_at,omitempty" db:"signed_at"`
	InstallationDate sql.NullTime   `json:"installation_date,omitempty" db:"installation_date"`

	InstallationFee float64 `json:"installation_fee" db:"installation_fee"`
	MonthlyFee      float64 `json:"monthly_fee" db:"monthly_fee"`

	// Version guards against lost updates from concurrent staff actions.
	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsClosed reports whether the contract reached a terminal outcome.
func (c *Contract) IsClosed() bool {
	switch c.Status {
	case StatusExpired, StatusTerminated, StatusAnnulled:
		return true
	}
	return false
}
