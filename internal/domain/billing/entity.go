// internal/domain/billing/entity.go
package billing

import (
	"database/sql"
	"fmt"
	"time"

	xerrors "aquaflow-service/internal/pkg/errors"
)

type PaymentStatus string

const (
	StatusPending       PaymentStatus = "pending"
	StatusPartiallyPaid PaymentStatus = "partially_paid"
	StatusPaid          PaymentStatus = "paid"
	StatusOverdue       PaymentStatus = "overdue"
	StatusCancelled     PaymentStatus = "cancelled"
)

type Action string

const (
	ActionPay         Action = "pay"
	ActionCancel      Action = "cancel"
	ActionMarkOverdue Action = "mark_overdue"
)

// payable statuses accept payments; the resulting status depends on the
// amount and is computed by the billing service, not by this table.
var transitions = map[PaymentStatus]map[Action]bool{
	StatusPending: {
		ActionPay:         true,
		ActionCancel:      true,
		ActionMarkOverdue: true,
	},
	StatusPartiallyPaid: {
		ActionPay:         true,
		ActionMarkOverdue: true,
	},
	StatusOverdue: {
		ActionPay:    true,
		ActionCancel: true,
	},
}

// CheckAction rejects actions that are illegal from the current status.
func CheckAction(current PaymentStatus, action Action) error {
	if actions, ok := transitions[current]; ok && actions[action] {
		return nil
	}
	return fmt.Errorf("%w: cannot %s an invoice in status %q", xerrors.ErrInvalidState, action, current)
}

// Invoice bills one service contract for one period.
type Invoice struct {
	ID                int64         `json:"id" db:"id"`
	InvoiceNumber     string        `json:"invoice_number" db:"invoice_number"`
	ServiceContractID int64         `json:"service_contract_id" db:"service_contract_id"`
	Period            string        `json:"period" db:"period"` // YYYY-MM
	Status            PaymentStatus `json:"status" db:"status"`
	TotalAmount       float64       `json:"total_amount" db:"total_amount"`
	PaidAmount        float64       `json:"paid_amount" db:"paid_amount"`
	DueDate           time.Time     `json:"due_date" db:"due_date"`
	IssuedAt          time.Time     `json:"issued_at" db:"issued_at"`
	PaidAt            sql.NullTime  `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// Remaining returns the unpaid balance.
func (i *Invoice) Remaining() float64 {
	return i.TotalAmount - i.PaidAmount
}

// InvoiceDetail is one line item of an invoice.
type InvoiceDetail struct {
	ID          int64   `json:"id" db:"id"`
	InvoiceID   int64   `json:"invoice_id" db:"invoice_id"`
	Description string  `json:"description" db:"description"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	Amount      float64 `json:"amount" db:"amount"`
}

// Receipt records one cashier payment against an invoice.
type Receipt struct {
	ID            int64     `json:"id" db:"id"`
	ReceiptNumber string    `json:"receipt_number" db:"receipt_number"`
	InvoiceID     int64     `json:"invoice_id" db:"invoice_id"`
	CashierID     int64     `json:"cashier_id" db:"cashier_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Method        string    `json:"method" db:"method"` // cash, bank_transfer
	PaidAt        time.Time `json:"paid_at" db:"paid_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
