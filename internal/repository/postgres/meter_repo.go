// internal/repository/postgres/meter_repo.go
package postgres

import (
	"context"
	"fmt"

	"aquaflow-service/internal/domain/meter"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MeterRepository struct {
	db *pgxpool.Pool
}

func NewMeterRepository(db *pgxpool.Pool) *MeterRepository {
	return &MeterRepository{db: db}
}

const meterColumns = `id, meter_code, serial_number, model, status, created_at, updated_at`

func scanMeter(row pgx.Row) (*meter.WaterMeter, error) {
	var m meter.WaterMeter
	err := row.Scan(&m.ID, &m.MeterCode, &m.SerialNumber, &m.Model, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("meter: %w", xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan meter: %w", err)
	}
	return &m, nil
}

// Create registers a new meter in stock.
func (r *MeterRepository) Create(ctx context.Context, m *meter.WaterMeter) error {
	query := `
		INSERT INTO water_meters (meter_code, serial_number, model, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, m.MeterCode, m.SerialNumber, m.Model, m.Status).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("meter code %s: %w", m.MeterCode, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create meter: %w", err)
	}
	return nil
}

// FindByCode retrieves a meter by its code.
func (r *MeterRepository) FindByCode(ctx context.Context, code string) (*meter.WaterMeter, error) {
	query := fmt.Sprintf(`SELECT %s FROM water_meters WHERE meter_code = $1`, meterColumns)
	return scanMeter(r.db.QueryRow(ctx, query, code))
}

// FindByCodeTx loads a meter with a row lock for installation flows.
func (r *MeterRepository) FindByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*meter.WaterMeter, error) {
	query := fmt.Sprintf(`SELECT %s FROM water_meters WHERE meter_code = $1 FOR UPDATE`, meterColumns)
	return scanMeter(tx.QueryRow(ctx, query, code))
}

// FindByIDTx loads a meter by id with a row lock.
func (r *MeterRepository) FindByIDTx(ctx context.Context, tx pgx.Tx, id int64) (*meter.WaterMeter, error) {
	query := fmt.Sprintf(`SELECT %s FROM water_meters WHERE id = $1 FOR UPDATE`, meterColumns)
	return scanMeter(tx.QueryRow(ctx, query, id))
}

// UpdateStatusTx flips a meter's status inside the caller's transaction.
func (r *MeterRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, meterID int64, status meter.Status) error {
	query := `UPDATE water_meters SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := tx.Exec(ctx, query, status, meterID)
	if err != nil {
		return fmt.Errorf("failed to update meter status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("meter %d: %w", meterID, xerrors.ErrNotFound)
	}
	return nil
}

// CreateInstallationTx records a meter being installed on a service contract.
func (r *MeterRepository) CreateInstallationTx(ctx context.Context, tx pgx.Tx, mi *meter.MeterInstallation) error {
	query := `
		INSERT INTO meter_installations (
			service_contract_id, meter_id, installed_by, initial_reading, installed_at
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := tx.QueryRow(
		ctx, query,
		mi.ServiceContractID, mi.MeterID, mi.InstalledBy, mi.InitialReading, mi.InstalledAt,
	).Scan(&mi.ID)
	if err != nil {
		return fmt.Errorf("failed to create meter installation: %w", err)
	}
	return nil
}

// CloseInstallationTx ends an installation, recording the final reading.
func (r *MeterRepository) CloseInstallationTx(ctx context.Context, tx pgx.Tx, installationID int64, finalReading float64) error {
	query := `
		UPDATE meter_installations
		SET final_reading = $1, removed_at = NOW()
		WHERE id = $2 AND removed_at IS NULL
	`

	result, err := tx.Exec(ctx, query, finalReading, installationID)
	if err != nil {
		return fmt.Errorf("failed to close meter installation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("open installation %d: %w", installationID, xerrors.ErrNotFound)
	}
	return nil
}

// FindActiveInstallation returns the currently installed meter for a service
// contract.
func (r *MeterRepository) FindActiveInstallation(ctx context.Context, serviceContractID int64) (*meter.MeterInstallation, error) {
	query := `
		SELECT id, service_contract_id, meter_id, installed_by, initial_reading,
			final_reading, installed_at, removed_at
		FROM meter_installations
		WHERE service_contract_id = $1 AND removed_at IS NULL
	`

	var mi meter.MeterInstallation
	err := r.db.QueryRow(ctx, query, serviceContractID).Scan(
		&mi.ID, &mi.ServiceContractID, &mi.MeterID, &mi.InstalledBy,
		&mi.InitialReading, &mi.FinalReading, &mi.InstalledAt, &mi.RemovedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("active installation for service contract %d: %w", serviceContractID, xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active installation: %w", err)
	}
	return &mi, nil
}
