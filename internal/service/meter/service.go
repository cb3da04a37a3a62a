// internal/service/meter/service.go
package meter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aquaflow-service/internal/domain/meter"
	"aquaflow-service/internal/domain/servicecontract"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type MeterRepo interface {
	Create(ctx context.Context, m *meter.WaterMeter) error
	FindByCode(ctx context.Context, code string) (*meter.WaterMeter, error)
	FindByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*meter.WaterMeter, error)
	FindByIDTx(ctx context.Context, tx pgx.Tx, id int64) (*meter.WaterMeter, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, meterID int64, status meter.Status) error
	CreateInstallationTx(ctx context.Context, tx pgx.Tx, mi *meter.MeterInstallation) error
	CloseInstallationTx(ctx context.Context, tx pgx.Tx, installationID int64, finalReading float64) error
	FindActiveInstallation(ctx context.Context, serviceContractID int64) (*meter.MeterInstallation, error)
}

type ReadingRepo interface {
	Create(ctx context.Context, mr *meter.MeterReading) error
	FindLatest(ctx context.Context, serviceContractID int64) (*meter.MeterReading, error)
	FindByPeriod(ctx context.Context, serviceContractID int64, period string) (*meter.MeterReading, error)
	ListByServiceContract(ctx context.Context, serviceContractID int64, limit int) ([]meter.MeterReading, error)
}

type ServiceContractRepo interface {
	FindByID(ctx context.Context, id int64) (*servicecontract.WaterServiceContract, error)
}

// Service manages the meter stock and per-period readings.
type Service struct {
	db               TxRunner
	meters           MeterRepo
	readings         ReadingRepo
	serviceContracts ServiceContractRepo
	logger           *zap.Logger
}

func NewService(db TxRunner, meters MeterRepo, readings ReadingRepo, serviceContracts ServiceContractRepo, logger *zap.Logger) *Service {
	return &Service{
		db:               db,
		meters:           meters,
		readings:         readings,
		serviceContracts: serviceContracts,
		logger:           logger,
	}
}

// Register adds a new meter to stock.
func (s *Service) Register(ctx context.Context, req *meter.RegisterMeterRequest) (*meter.WaterMeter, error) {
	m := &meter.WaterMeter{
		MeterCode:    req.MeterCode,
		SerialNumber: req.SerialNumber,
		Status:       meter.StatusInStock,
	}
	if req.Model != "" {
		m.Model = sql.NullString{String: req.Model, Valid: true}
	}

	if err := s.meters.Create(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("meter registered", zap.String("meter_code", m.MeterCode))
	return m, nil
}

// Get returns a meter by its code.
func (s *Service) Get(ctx context.Context, code string) (*meter.WaterMeter, error) {
	return s.meters.FindByCode(ctx, code)
}

// SubmitReading records one billing-period reading for a service contract.
// The previous value is taken from the latest stored reading, or the
// installation's initial reading when no reading exists yet.
func (s *Service) SubmitReading(ctx context.Context, serviceContractID, recordedBy int64, req *meter.SubmitReadingRequest) (*meter.MeterReading, error) {
	sc, err := s.serviceContracts.FindByID(ctx, serviceContractID)
	if err != nil {
		return nil, err
	}
	if sc.Status != servicecontract.StatusActive {
		return nil, fmt.Errorf("%w: service contract %d is %s", xerrors.ErrInvalidState, sc.ID, sc.Status)
	}

	mi, err := s.meters.FindActiveInstallation(ctx, serviceContractID)
	if err != nil {
		return nil, xerrors.Wrap(err, "no installed meter")
	}

	previous := mi.InitialReading
	if latest, err := s.readings.FindLatest(ctx, serviceContractID); err == nil {
		previous = latest.CurrentValue
	} else if !xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	mr, err := meter.NewReading(serviceContractID, mi.MeterID, recordedBy, req.Period, previous, req.CurrentValue, req.ReadAt)
	if err != nil {
		return nil, err
	}

	if err := s.readings.Create(ctx, mr); err != nil {
		return nil, err
	}

	s.logger.Info("meter reading recorded",
		zap.Int64("service_contract_id", serviceContractID),
		zap.String("period", mr.Period),
		zap.Float64("consumption", mr.Consumption))
	return mr, nil
}

// ListReadings returns the most recent readings for a service contract.
func (s *Service) ListReadings(ctx context.Context, serviceContractID int64, limit int) ([]meter.MeterReading, error) {
	if limit < 1 || limit > 100 {
		limit = 24
	}
	return s.readings.ListByServiceContract(ctx, serviceContractID, limit)
}

// Replace swaps the installed meter in one transaction: the old installation
// is closed with its final reading, the old meter returns to stock and the
// new meter is installed with its initial reading.
func (s *Service) Replace(ctx context.Context, serviceContractID, actorID int64, req *meter.ReplaceMeterRequest) (*meter.MeterInstallation, error) {
	var result *meter.MeterInstallation

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		old, err := s.meters.FindActiveInstallation(ctx, serviceContractID)
		if err != nil {
			return xerrors.Wrap(err, "no installed meter")
		}
		if req.FinalReading < old.InitialReading {
			return fmt.Errorf("%w: final reading %.3f is below initial %.3f", xerrors.ErrInvalidInput, req.FinalReading, old.InitialReading)
		}

		newMeter, err := s.meters.FindByCodeTx(ctx, tx, req.NewMeterCode)
		if err != nil {
			return err
		}
		if newMeter.ID == old.MeterID {
			return fmt.Errorf("%w: meter %s is already installed here", xerrors.ErrInvalidInput, req.NewMeterCode)
		}

		oldMeter, err := s.meters.FindByIDTx(ctx, tx, old.MeterID)
		if err != nil {
			return err
		}
		removed, err := meter.NextStatus(oldMeter.Status, meter.ActionRemove)
		if err != nil {
			return err
		}
		next, err := meter.NextStatus(newMeter.Status, meter.ActionInstall)
		if err != nil {
			return err
		}

		if err := s.meters.CloseInstallationTx(ctx, tx, old.ID, req.FinalReading); err != nil {
			return err
		}
		if err := s.meters.UpdateStatusTx(ctx, tx, old.MeterID, removed); err != nil {
			return err
		}
		if err := s.meters.UpdateStatusTx(ctx, tx, newMeter.ID, next); err != nil {
			return err
		}

		mi := &meter.MeterInstallation{
			ServiceContractID: serviceContractID,
			MeterID:           newMeter.ID,
			InstalledBy:       sql.NullInt64{Int64: actorID, Valid: true},
			InitialReading:    req.InitialReading,
			InstalledAt:       time.Now(),
		}
		if err := s.meters.CreateInstallationTx(ctx, tx, mi); err != nil {
			return err
		}

		result = mi
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("meter replaced",
		zap.Int64("service_contract_id", serviceContractID),
		zap.String("new_meter_code", req.NewMeterCode),
		zap.String("reason", req.Reason))
	return result, nil
}
