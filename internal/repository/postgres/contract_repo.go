// internal/repository/postgres/contract_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"aquaflow-service/internal/domain/contract"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContractRepository struct {
	db *pgxpool.Pool
}

func NewContractRepository(db *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
	id, contract_number, customer_id, contact_phone, contact_name, address, notes,
	status, service_staff_id, technical_staff_id, survey_date, survey_notes,
	signed_at, installation_date, installation_fee, monthly_fee, version,
	created_at, updated_at
`

func scanContract(row pgx.Row) (*contract.Contract, error) {
	var c contract.Contract
	err := row.Scan(
		&c.ID, &c.ContractNumber, &c.CustomerID, &c.ContactPhone, &c.ContactName,
		&c.Address, &c.Notes, &c.Status, &c.ServiceStaffID, &c.TechnicalStaffID,
		&c.SurveyDate, &c.SurveyNotes, &c.SignedAt, &c.InstallationDate,
		&c.InstallationFee, &c.MonthlyFee, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("contract: %w", xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}
	return &c, nil
}

// CreateTx inserts a new contract inside the caller's transaction.
func (r *ContractRepository) CreateTx(ctx context.Context, tx pgx.Tx, c *contract.Contract) error {
	query := `
		INSERT INTO contracts (
			contract_number, customer_id, contact_phone, contact_name, address,
			notes, status, installation_fee, monthly_fee, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
		RETURNING id, version, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx, query,
		c.ContractNumber, c.CustomerID, c.ContactPhone, c.ContactName, c.Address,
		c.Notes, c.Status, c.InstallationFee, c.MonthlyFee,
	).Scan(&c.ID, &c.Version, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("contract number %s: %w", c.ContractNumber, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// FindByID retrieves a contract by ID.
func (r *ContractRepository) FindByID(ctx context.Context, id int64) (*contract.Contract, error) {
	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE id = $1`, contractColumns)
	return scanContract(r.db.QueryRow(ctx, query, id))
}

// FindByIDTx loads a contract with a row lock so concurrent staff actions on
// the same contract are serialized.
func (r *ContractRepository) FindByIDTx(ctx context.Context, tx pgx.Tx, id int64) (*contract.Contract, error) {
	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE id = $1 FOR UPDATE`, contractColumns)
	return scanContract(tx.QueryRow(ctx, query, id))
}

// UpdateTx persists a mutated contract. The WHERE clause checks the version
// the caller loaded; zero affected rows means another writer got there first.
func (r *ContractRepository) UpdateTx(ctx context.Context, tx pgx.Tx, c *contract.Contract) error {
	query := `
		UPDATE contracts
		SET customer_id = $1, contact_phone = $2, contact_name = $3, address = $4,
			notes = $5, status = $6, service_staff_id = $7, technical_staff_id = $8,
			survey_date = $9, survey_notes = $10, signed_at = $11,
			installation_date = $12, installation_fee = $13, monthly_fee = $14,
			version = version + 1, updated_at = NOW()
		WHERE id = $15 AND version = $16
	`

	result, err := tx.Exec(
		ctx, query,
		c.CustomerID, c.ContactPhone, c.ContactName, c.Address, c.Notes,
		c.Status, c.ServiceStaffID, c.TechnicalStaffID, c.SurveyDate,
		c.SurveyNotes, c.SignedAt, c.InstallationDate, c.InstallationFee,
		c.MonthlyFee, c.ID, c.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("contract %d: %w", c.ID, xerrors.ErrVersionConflict)
	}

	c.Version++
	return nil
}

// List retrieves contracts with filters and pagination.
func (r *ContractRepository) List(ctx context.Context, filters *contract.ContractListFilters) ([]contract.Contract, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}
	if filters.Phone != nil {
		conditions = append(conditions, fmt.Sprintf("contact_phone = $%d", argPos))
		args = append(args, *filters.Phone)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM contracts WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT %s FROM contracts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, contractColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	contracts := []contract.Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, *c)
	}

	return contracts, total, nil
}
