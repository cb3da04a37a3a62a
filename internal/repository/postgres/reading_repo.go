// internal/repository/postgres/reading_repo.go
package postgres

import (
	"context"
	"fmt"

	"aquaflow-service/internal/domain/meter"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReadingRepository struct {
	db *pgxpool.Pool
}

func NewReadingRepository(db *pgxpool.Pool) *ReadingRepository {
	return &ReadingRepository{db: db}
}

const readingColumns = `
	id, service_contract_id, meter_id, recorded_by, period, previous_value,
	current_value, consumption, read_at, created_at
`

func scanReading(row pgx.Row) (*meter.MeterReading, error) {
	var mr meter.MeterReading
	err := row.Scan(
		&mr.ID, &mr.ServiceContractID, &mr.MeterID, &mr.RecordedBy, &mr.Period,
		&mr.PreviousValue, &mr.CurrentValue, &mr.Consumption, &mr.ReadAt, &mr.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("meter reading: %w", xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan meter reading: %w", err)
	}
	return &mr, nil
}

// Create stores a validated reading. One reading per (service contract,
// period) is enforced by a unique index.
func (r *ReadingRepository) Create(ctx context.Context, mr *meter.MeterReading) error {
	query := `
		INSERT INTO meter_readings (
			service_contract_id, meter_id, recorded_by, period, previous_value,
			current_value, consumption, read_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		mr.ServiceContractID, mr.MeterID, mr.RecordedBy, mr.Period,
		mr.PreviousValue, mr.CurrentValue, mr.Consumption, mr.ReadAt,
	).Scan(&mr.ID, &mr.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reading for period %s: %w", mr.Period, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create meter reading: %w", err)
	}
	return nil
}

// CreateTx stores a reading inside the caller's transaction. Used when the
// reading must commit together with other rows, such as the initial reading
// written on installation completion.
func (r *ReadingRepository) CreateTx(ctx context.Context, tx pgx.Tx, mr *meter.MeterReading) error {
	query := `
		INSERT INTO meter_readings (
			service_contract_id, meter_id, recorded_by, period, previous_value,
			current_value, consumption, read_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := tx.QueryRow(
		ctx, query,
		mr.ServiceContractID, mr.MeterID, mr.RecordedBy, mr.Period,
		mr.PreviousValue, mr.CurrentValue, mr.Consumption, mr.ReadAt,
	).Scan(&mr.ID, &mr.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reading for period %s: %w", mr.Period, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create meter reading: %w", err)
	}
	return nil
}

// FindLatest returns the most recent reading for a service contract.
func (r *ReadingRepository) FindLatest(ctx context.Context, serviceContractID int64) (*meter.MeterReading, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM meter_readings
		WHERE service_contract_id = $1
		ORDER BY read_at DESC
		LIMIT 1
	`, readingColumns)
	return scanReading(r.db.QueryRow(ctx, query, serviceContractID))
}

// FindByPeriod returns the reading recorded for a billing period.
func (r *ReadingRepository) FindByPeriod(ctx context.Context, serviceContractID int64, period string) (*meter.MeterReading, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM meter_readings
		WHERE service_contract_id = $1 AND period = $2
	`, readingColumns)
	return scanReading(r.db.QueryRow(ctx, query, serviceContractID, period))
}

// ListByServiceContract returns readings newest first.
func (r *ReadingRepository) ListByServiceContract(ctx context.Context, serviceContractID int64, limit int) ([]meter.MeterReading, error) {
	if limit <= 0 {
		limit = 24
	}

	query := fmt.Sprintf(`
		SELECT %s FROM meter_readings
		WHERE service_contract_id = $1
		ORDER BY read_at DESC
		LIMIT $2
	`, readingColumns)

	rows, err := r.db.Query(ctx, query, serviceContractID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	defer rows.Close()

	readings := []meter.MeterReading{}
	for rows.Next() {
		mr, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *mr)
	}

	return readings, nil
}
