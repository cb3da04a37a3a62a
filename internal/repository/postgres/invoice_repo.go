// internal/repository/postgres/invoice_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"aquaflow-service/internal/domain/billing"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InvoiceRepository struct {
	db *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `
	id, invoice_number, service_contract_id, period, status, total_amount,
	paid_amount, due_date, issued_at, paid_at, created_at, updated_at
`

func scanInvoice(row pgx.Row) (*billing.Invoice, error) {
	var inv billing.Invoice
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.ServiceContractID, &inv.Period,
		&inv.Status, &inv.TotalAmount, &inv.PaidAmount, &inv.DueDate,
		&inv.IssuedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("invoice: %w", xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}
	return &inv, nil
}

// CreateTx inserts an invoice with its line items in one transaction.
func (r *InvoiceRepository) CreateTx(ctx context.Context, tx pgx.Tx, inv *billing.Invoice, details []billing.InvoiceDetail) error {
	query := `
		INSERT INTO invoices (
			invoice_number, service_contract_id, period, status, total_amount,
			paid_amount, due_date, issued_at
		)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx, query,
		inv.InvoiceNumber, inv.ServiceContractID, inv.Period, inv.Status,
		inv.TotalAmount, inv.DueDate, inv.IssuedAt,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice for period %s: %w", inv.Period, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	for i := range details {
		details[i].InvoiceID = inv.ID
		detailQuery := `
			INSERT INTO invoice_details (invoice_id, description, quantity, unit_price, amount)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		err := tx.QueryRow(
			ctx, detailQuery,
			details[i].InvoiceID, details[i].Description, details[i].Quantity,
			details[i].UnitPrice, details[i].Amount,
		).Scan(&details[i].ID)
		if err != nil {
			return fmt.Errorf("failed to create invoice detail: %w", err)
		}
	}

	return nil
}

// FindByID retrieves an invoice by ID.
func (r *InvoiceRepository) FindByID(ctx context.Context, id int64) (*billing.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1`, invoiceColumns)
	return scanInvoice(r.db.QueryRow(ctx, query, id))
}

// FindByIDTx loads an invoice with a row lock for payment flows.
func (r *InvoiceRepository) FindByIDTx(ctx context.Context, tx pgx.Tx, id int64) (*billing.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1 FOR UPDATE`, invoiceColumns)
	return scanInvoice(tx.QueryRow(ctx, query, id))
}

// ListDetails returns line items for an invoice.
func (r *InvoiceRepository) ListDetails(ctx context.Context, invoiceID int64) ([]billing.InvoiceDetail, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, amount
		FROM invoice_details
		WHERE invoice_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice details: %w", err)
	}
	defer rows.Close()

	details := []billing.InvoiceDetail{}
	for rows.Next() {
		var d billing.InvoiceDetail
		if err := rows.Scan(&d.ID, &d.InvoiceID, &d.Description, &d.Quantity, &d.UnitPrice, &d.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan invoice detail: %w", err)
		}
		details = append(details, d)
	}

	return details, nil
}

// UpdatePaymentTx updates payment bookkeeping after a cashier action.
func (r *InvoiceRepository) UpdatePaymentTx(ctx context.Context, tx pgx.Tx, inv *billing.Invoice) error {
	query := `
		UPDATE invoices
		SET status = $1, paid_amount = $2, paid_at = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := tx.Exec(ctx, query, inv.Status, inv.PaidAmount, inv.PaidAt, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to update invoice payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d: %w", inv.ID, xerrors.ErrNotFound)
	}
	return nil
}

// CreateReceiptTx inserts a receipt row for a recorded payment.
func (r *InvoiceRepository) CreateReceiptTx(ctx context.Context, tx pgx.Tx, rc *billing.Receipt) error {
	query := `
		INSERT INTO receipts (receipt_number, invoice_id, cashier_id, amount, method, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := tx.QueryRow(
		ctx, query,
		rc.ReceiptNumber, rc.InvoiceID, rc.CashierID, rc.Amount, rc.Method, rc.PaidAt,
	).Scan(&rc.ID, &rc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

// MarkOverdue sweeps unpaid invoices past their due date and returns how many
// rows changed.
func (r *InvoiceRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE status IN ($2, $3) AND due_date < $4
	`

	result, err := r.db.Exec(ctx, query, billing.StatusOverdue, billing.StatusPending, billing.StatusPartiallyPaid, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListByServiceContract returns invoices for a service contract newest first.
func (r *InvoiceRepository) ListByServiceContract(ctx context.Context, serviceContractID int64, limit int) ([]billing.Invoice, error) {
	if limit <= 0 {
		limit = 24
	}

	query := fmt.Sprintf(`
		SELECT %s FROM invoices
		WHERE service_contract_id = $1
		ORDER BY issued_at DESC
		LIMIT $2
	`, invoiceColumns)

	rows, err := r.db.Query(ctx, query, serviceContractID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []billing.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}

	return invoices, nil
}
