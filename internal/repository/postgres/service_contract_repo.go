// internal/repository/postgres/service_contract_repo.go
package postgres

import (
	"context"
	"fmt"

	"aquaflow-service/internal/domain/servicecontract"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ServiceContractRepository struct {
	db *pgxpool.Pool
}

func NewServiceContractRepository(db *pgxpool.Pool) *ServiceContractRepository {
	return &ServiceContractRepository{db: db}
}

const serviceContractColumns = `
	id, contract_id, contract_number, customer_id, address, status,
	monthly_fee, start_date, end_date, created_at, updated_at
`

func scanServiceContract(row pgx.Row) (*servicecontract.WaterServiceContract, error) {
	var sc servicecontract.WaterServiceContract
	err := row.Scan(
		&sc.ID, &sc.ContractID, &sc.ContractNumber, &sc.CustomerID, &sc.Address,
		&sc.Status, &sc.MonthlyFee, &sc.StartDate, &sc.EndDate,
		&sc.CreatedAt, &sc.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("service contract: %w", xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan service contract: %w", err)
	}
	return &sc, nil
}

// CreateTx inserts the service contract created by installation completion.
func (r *ServiceContractRepository) CreateTx(ctx context.Context, tx pgx.Tx, sc *servicecontract.WaterServiceContract) error {
	query := `
		INSERT INTO water_service_contracts (
			contract_id, contract_number, customer_id, address, status,
			monthly_fee, start_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx, query,
		sc.ContractID, sc.ContractNumber, sc.CustomerID, sc.Address,
		sc.Status, sc.MonthlyFee, sc.StartDate,
	).Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("service contract for contract %d: %w", sc.ContractID, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create service contract: %w", err)
	}
	return nil
}

// FindByID retrieves a service contract by ID.
func (r *ServiceContractRepository) FindByID(ctx context.Context, id int64) (*servicecontract.WaterServiceContract, error) {
	query := fmt.Sprintf(`SELECT %s FROM water_service_contracts WHERE id = $1`, serviceContractColumns)
	return scanServiceContract(r.db.QueryRow(ctx, query, id))
}

// FindByContractID retrieves the service contract created for an
// installation contract.
func (r *ServiceContractRepository) FindByContractID(ctx context.Context, contractID int64) (*servicecontract.WaterServiceContract, error) {
	query := fmt.Sprintf(`SELECT %s FROM water_service_contracts WHERE contract_id = $1`, serviceContractColumns)
	return scanServiceContract(r.db.QueryRow(ctx, query, contractID))
}

// UpdateStatus changes a service contract's status.
func (r *ServiceContractRepository) UpdateStatus(ctx context.Context, id int64, status servicecontract.Status) error {
	query := `UPDATE water_service_contracts SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update service contract status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("service contract %d: %w", id, xerrors.ErrNotFound)
	}
	return nil
}

// UpdateStatusTx updates the service status inside the caller's transaction.
func (r *ServiceContractRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status servicecontract.Status) error {
	query := `UPDATE water_service_contracts SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update service contract status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("service contract %d: %w", id, xerrors.ErrNotFound)
	}
	return nil
}
