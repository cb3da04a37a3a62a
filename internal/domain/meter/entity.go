// internal/domain/meter/entity.go
package meter

import (
	"database/sql"
	"fmt"
	"time"

	xerrors "aquaflow-service/internal/pkg/errors"
)

type Status string

const (
	StatusInStock          Status = "in_stock"
	StatusInstalled        Status = "installed"
	StatusBroken           Status = "broken"
	StatusUnderMaintenance Status = "under_maintenance"
	StatusRetired          Status = "retired"
)

type Action string

const (
	ActionInstall      Action = "install"
	ActionRemove       Action = "remove"
	ActionReportBroken Action = "report_broken"
	ActionService      Action = "service"
	ActionRepair       Action = "repair"
	ActionRetire       Action = "retire"
)

var transitions = map[Status]map[Action]Status{
	StatusInStock: {
		ActionInstall: StatusInstalled,
		ActionRetire:  StatusRetired,
	},
	StatusInstalled: {
		ActionRemove:       StatusInStock,
		ActionReportBroken: StatusBroken,
		ActionService:      StatusUnderMaintenance,
	},
	// Removing a faulty meter takes it off the service contract without
	// changing its condition; repair or retirement follows separately.
	StatusBroken: {
		ActionRemove: StatusBroken,
		ActionRepair: StatusInStock,
		ActionRetire: StatusRetired,
	},
	StatusUnderMaintenance: {
		ActionRemove: StatusUnderMaintenance,
		ActionRepair: StatusInstalled,
		ActionRetire: StatusRetired,
	},
}

// NextStatus resolves a meter status change; unknown pairs are illegal.
func NextStatus(current Status, action Action) (Status, error) {
	if actions, ok := transitions[current]; ok {
		if next, ok := actions[action]; ok {
			return next, nil
		}
	}
	return "", fmt.Errorf("%w: cannot %s a meter in status %q", xerrors.ErrInvalidState, action, current)
}

// WaterMeter is a physical asset tracked from stock to retirement.
type WaterMeter struct {
	ID           int64          `json:"id" db:"id"`
	MeterCode    string         `json:"meter_code" db:"meter_code"`
	SerialNumber string         `json:"serial_number" db:"serial_number"`
	Model        sql.NullString `json:"model,omitempty" db:"model"`
	Status       Status         `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// MeterInstallation links a meter to a service contract for a period of time.
type MeterInstallation struct {
	ID                int64           `json:"id" db:"id"`
	ServiceContractID int64           `json:"service_contract_id" db:"service_contract_id"`
	MeterID           int64           `json:"meter_id" db:"meter_id"`
	InstalledBy       sql.NullInt64   `json:"installed_by,omitempty" db:"installed_by"`
	InitialReading    float64         `json:"initial_reading" db:"initial_reading"`
	FinalReading      sql.NullFloat64 `json:"final_reading,omitempty" db:"final_reading"`
	InstalledAt       time.Time       `json:"installed_at" db:"installed_at"`
	RemovedAt         sql.NullTime    `json:"removed_at,omitempty" db:"removed_at"`
}

// MeterReading records one billing-period reading. Consumption is always
// derived as current minus previous; both invariants (current >= previous,
// consumption = current - previous) hold for every stored row.
type MeterReading struct {
	ID                int64     `json:"id" db:"id"`
	ServiceContractID int64     `json:"service_contract_id" db:"service_contract_id"`
	MeterID           int64     `json:"meter_id" db:"meter_id"`
	RecordedBy        int64     `json:"recorded_by" db:"recorded_by"`
	Period            string    `json:"period" db:"period"` // YYYY-MM
	PreviousValue     float64   `json:"previous_value" db:"previous_value"`
	CurrentValue      float64   `json:"current_value" db:"current_value"`
	Consumption       float64   `json:"consumption" db:"consumption"`
	ReadAt            time.Time `json:"read_at" db:"read_at"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// NewReading validates and derives a reading from the previous value.
func NewReading(serviceContractID, meterID, recordedBy int64, period string, previous, current float64, readAt time.Time) (*MeterReading, error) {
	if current < previous {
		return nil, fmt.Errorf("%w: current reading %.3f is below previous %.3f", xerrors.ErrInvalidInput, current, previous)
	}
	return &MeterReading{
		ServiceContractID: serviceContractID,
		MeterID:           meterID,
		RecordedBy:        recordedBy,
		Period:            period,
		PreviousValue:     previous,
		CurrentValue:      current,
		Consumption:       current - previous,
		ReadAt:            readAt,
	}, nil
}
