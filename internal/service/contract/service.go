// internal/service/contract/service.go
package contract

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aquaflow-service/internal/domain/contract"
	"aquaflow-service/internal/domain/meter"
	"aquaflow-service/internal/domain/servicecontract"
	"aquaflow-service/internal/domain/staff"
	"aquaflow-service/internal/event"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// TxRunner runs a function inside a single database transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type ContractRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *contract.Contract) error
	FindByID(ctx context.Context, id int64) (*contract.Contract, error)
	FindByIDTx(ctx context.Context, tx pgx.Tx, id int64) (*contract.Contract, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, c *contract.Contract) error
	List(ctx context.Context, filters *contract.ContractListFilters) ([]contract.Contract, int64, error)
}

type ServiceContractRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, sc *servicecontract.WaterServiceContract) error
	FindByContractID(ctx context.Context, contractID int64) (*servicecontract.WaterServiceContract, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status servicecontract.Status) error
}

type MeterRepo interface {
	FindByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*meter.WaterMeter, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, meterID int64, status meter.Status) error
	CreateInstallationTx(ctx context.Context, tx pgx.Tx, mi *meter.MeterInstallation) error
}

type ReadingRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, mr *meter.MeterReading) error
}

type OutboxWriter interface {
	EnqueueTx(ctx context.Context, tx pgx.Tx, ev *event.Event) error
}

// Service drives the contract lifecycle. Every mutating method runs in one
// transaction: the row is locked, the transition table is consulted, the
// contract is updated under its version guard and exactly one lifecycle
// event is written to the outbox. Either all of it commits or none of it.
type Service struct {
	db               TxRunner
	contracts        ContractRepo
	serviceContracts ServiceContractRepo
	meters           MeterRepo
	readings         ReadingRepo
	outbox           OutboxWriter
	logger           *zap.Logger
}

func NewService(
	db TxRunner,
	contracts ContractRepo,
	serviceContracts ServiceContractRepo,
	meters MeterRepo,
	readings ReadingRepo,
	outbox OutboxWriter,
	logger *zap.Logger,
) *Service {
	return &Service{
		db:               db,
		contracts:        contracts,
		serviceContracts: serviceContracts,
		meters:           meters,
		readings:         readings,
		outbox:           outbox,
		logger:           logger,
	}
}

// Create opens a new installation request. The request may reference a
// registered customer or carry guest contact details only. A draft request
// stays out of the work queue; its created event fires on Submit instead.
func (s *Service) Create(ctx context.Context, actorID int64, req *contract.CreateContractRequest) (*contract.Contract, error) {
	c := &contract.Contract{
		ContractNumber: "CT-" + ulid.Make().String(),
		ContactPhone:   req.ContactPhone,
		Address:        req.Address,
		Status:         contract.StatusPending,
	}
	if req.Draft {
		c.Status = contract.StatusDraft
	}
	if req.CustomerID != nil {
		c.CustomerID = sql.NullInt64{Int64: *req.CustomerID, Valid: true}
	}
	if req.ContactName != "" {
		c.ContactName = sql.NullString{String: req.ContactName, Valid: true}
	}
	if req.Notes != "" {
		c.Notes = sql.NullString{String: req.Notes, Valid: true}
	}

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.contracts.CreateTx(ctx, tx, c); err != nil {
			return err
		}
		if c.Status == contract.StatusDraft {
			return nil
		}
		return s.outbox.EnqueueTx(ctx, tx, requestCreatedEvent(c, actorID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contract request created",
		zap.Int64("contract_id", c.ID),
		zap.String("contract_number", c.ContractNumber),
		zap.String("status", string(c.Status)))
	return c, nil
}

// Submit moves a draft request into the service staff work queue.
func (s *Service) Submit(ctx context.Context, id, actorID int64) (*contract.Contract, error) {
	return s.transition(ctx, id, actorID, contract.ActionSubmit, nil,
		func(c *contract.Contract) *event.Event {
			return requestCreatedEvent(c, actorID)
		})
}

func requestCreatedEvent(c *contract.Contract, actorID int64) *event.Event {
	return event.New(event.KindContractRequestCreated, c.ID, actorID, nil, staff.RoleServiceStaff, map[string]interface{}{
		"contract_number": c.ContractNumber,
		"address":         c.Address,
	})
}

// Get returns a contract by ID.
func (s *Service) Get(ctx context.Context, id int64) (*contract.Contract, error) {
	return s.contracts.FindByID(ctx, id)
}

// List returns contracts matching the filters with pagination.
func (s *Service) List(ctx context.Context, filters *contract.ContractListFilters) (*contract.ContractListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	contracts, total, err := s.contracts.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	return &contract.ContractListResponse{
		Contracts:  contracts,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// transition locks the contract, applies one lifecycle action and writes the
// matching event. mutate runs after the status change has been resolved and
// may reject the action by returning an error.
func (s *Service) transition(
	ctx context.Context,
	id int64,
	actorID int64,
	action contract.Action,
	mutate func(c *contract.Contract) error,
	buildEvent func(c *contract.Contract) *event.Event,
) (*contract.Contract, error) {
	var result *contract.Contract

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		c, err := s.contracts.FindByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		next, err := contract.NextStatus(c.Status, action)
		if err != nil {
			return err
		}
		c.Status = next

		if mutate != nil {
			if err := mutate(c); err != nil {
				return err
			}
		}

		if err := s.contracts.UpdateTx(ctx, tx, c); err != nil {
			return err
		}

		if buildEvent != nil {
			if err := s.outbox.EnqueueTx(ctx, tx, buildEvent(c)); err != nil {
				return err
			}
		}

		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contract transition applied",
		zap.Int64("contract_id", id),
		zap.String("action", string(action)),
		zap.String("status", string(result.Status)),
		zap.Int64("actor_id", actorID))
	return result, nil
}

// SubmitSurvey records the site survey filed by a technical staff member and
// moves the contract to review.
func (s *Service) SubmitSurvey(ctx context.Context, id, actorID int64, req *contract.SubmitSurveyRequest) (*contract.Contract, error) {
	return s.transition(ctx, id, actorID, contract.ActionSubmitSurvey,
		func(c *contract.Contract) error {
			c.TechnicalStaffID = sql.NullInt64{Int64: actorID, Valid: true}
			c.SurveyDate = sql.NullTime{Time: req.SurveyDate, Valid: true}
			c.SurveyNotes = sql.NullString{String: req.SurveyNotes, Valid: true}
			return nil
		},
		func(c *contract.Contract) *event.Event {
			return event.New(event.KindSurveyReportSubmitted, c.ID, actorID, nil, staff.RoleServiceStaff, map[string]interface{}{
				"contract_number": c.ContractNumber,
			})
		})
}

// ApproveSurvey is the service staff approval: it fixes the fees and makes
// the approver the contract's owning service staff member. The surveyor is
// notified.
func (s *Service) ApproveSurvey(ctx context.Context, id, actorID int64, req *contract.ApproveSurveyRequest) (*contract.Contract, error) {
	return s.transition(ctx, id, actorID, contract.ActionApproveSurvey,
		func(c *contract.Contract) error {
			c.ServiceStaffID = sql.NullInt64{Int64: actorID, Valid: true}
			c.InstallationFee = req.InstallationFee
			c.MonthlyFee = req.MonthlyFee
			return nil
		},
		func(c *contract.Contract) *event.Event {
			var recipient *int64
			if c.TechnicalStaffID.Valid {
				recipient = &c.TechnicalStaffID.Int64
			}
			return event.New(event.KindSurveyReportApproved, c.ID, actorID, recipient, staff.RoleTechnicalStaff, map[string]interface{}{
				"contract_number":  c.ContractNumber,
				"installation_fee": c.InstallationFee,
				"monthly_fee":      c.MonthlyFee,
			})
		})
}

// SendForSignature hands the approved contract to the customer for signing.
func (s *Service) SendForSignature(ctx context.Context, id, actorID int64) (*contract.Contract, error) {
	return s.transition(ctx, id, actorID, contract.ActionSendForSignature, nil, nil)
}

// Sign records the customer signature.
func (s *Service) Sign(ctx context.Context, id, actorID int64) (*contract.Contract, error) {
	return s.transition(ctx, id, actorID, contract.ActionSign,
		func(c *contract.Contract) error {
			c.SignedAt = sql.NullTime{Time: time.Now(), Valid: true}
			return nil
		},
		func(c *contract.Contract) *event.Event {
			var recipient *int64
			if c.ServiceStaffID.Valid {
				recipient = &c.ServiceStaffID.Int64
			}
			return event.New(event.KindCustomerSignedContract, c.ID, actorID, recipient, staff.RoleServiceStaff, map[string]interface{}{
				"contract_number": c.ContractNumber,
			})
		})
}

// SendToInstallation assigns a technician and schedules the installation.
func (s *Service) SendToInstallation(ctx context.Context, id, actorID int64, req *contract.SendToInstallationRequest) (*contract.Contract, error) {
	return s.transition(ctx, id, actorID, contract.ActionSendToInstallation,
		func(c *contract.Contract) error {
			c.TechnicalStaffID = sql.NullInt64{Int64: req.TechnicalStaffID, Valid: true}
			c.InstallationDate = sql.NullTime{Time: req.InstallationDate, Valid: true}
			return nil
		},
		func(c *contract.Contract) *event.Event {
			return event.New(event.KindContractSentToInstallation, c.ID, actorID, &req.TechnicalStaffID, "", map[string]interface{}{
				"contract_number":   c.ContractNumber,
				"address":           c.Address,
				"installation_date": req.InstallationDate,
			})
		})
}

// CompleteInstallation closes out the installation in one transaction: the
// contract goes active, the ongoing service contract is opened, the meter
// leaves stock, the installation link is recorded and the initial reading is
// stored. A failure at any step rolls back all of it.
func (s *Service) CompleteInstallation(ctx context.Context, id, actorID int64, req *contract.CompleteInstallationRequest) (*contract.Contract, error) {
	var result *contract.Contract

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		c, err := s.contracts.FindByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		next, err := contract.NextStatus(c.Status, contract.ActionCompleteInstallation)
		if err != nil {
			return err
		}
		c.Status = next

		now := time.Now()

		sc := &servicecontract.WaterServiceContract{
			ContractID:     c.ID,
			ContractNumber: c.ContractNumber,
			CustomerID:     c.CustomerID,
			Address:        c.Address,
			Status:         servicecontract.StatusActive,
			MonthlyFee:     c.MonthlyFee,
			StartDate:      now,
		}
		if err := s.serviceContracts.CreateTx(ctx, tx, sc); err != nil {
			return err
		}

		m, err := s.meters.FindByCodeTx(ctx, tx, req.MeterCode)
		if err != nil {
			return err
		}
		meterNext, err := meter.NextStatus(m.Status, meter.ActionInstall)
		if err != nil {
			return err
		}
		if err := s.meters.UpdateStatusTx(ctx, tx, m.ID, meterNext); err != nil {
			return err
		}

		mi := &meter.MeterInstallation{
			ServiceContractID: sc.ID,
			MeterID:           m.ID,
			InstalledBy:       sql.NullInt64{Int64: actorID, Valid: true},
			InitialReading:    req.InitialReading,
			InstalledAt:       now,
		}
		if err := s.meters.CreateInstallationTx(ctx, tx, mi); err != nil {
			return err
		}

		// The baseline reading: previous equals current, consumption zero.
		mr, err := meter.NewReading(sc.ID, m.ID, actorID, now.Format("2006-01"), req.InitialReading, req.InitialReading, now)
		if err != nil {
			return err
		}
		if err := s.readings.CreateTx(ctx, tx, mr); err != nil {
			return err
		}

		if err := s.contracts.UpdateTx(ctx, tx, c); err != nil {
			return err
		}

		var recipient *int64
		if c.ServiceStaffID.Valid {
			recipient = &c.ServiceStaffID.Int64
		}
		ev := event.New(event.KindInstallationCompleted, c.ID, actorID, recipient, staff.RoleServiceStaff, map[string]interface{}{
			"contract_number":     c.ContractNumber,
			"service_contract_id": sc.ID,
			"meter_code":          m.MeterCode,
			"initial_reading":     req.InitialReading,
		})
		if err := s.outbox.EnqueueTx(ctx, tx, ev); err != nil {
			return err
		}

		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("installation completed",
		zap.Int64("contract_id", id),
		zap.String("meter_code", req.MeterCode))
	return result, nil
}

// Annul cancels a contract that has not gone active yet.
func (s *Service) Annul(ctx context.Context, id, actorID int64, req *contract.AnnulContractRequest) (*contract.Contract, error) {
	return s.transition(ctx, id, actorID, contract.ActionAnnul,
		func(c *contract.Contract) error {
			note := "annulled: " + req.Reason
			if c.Notes.Valid {
				note = c.Notes.String + "\n" + note
			}
			c.Notes = sql.NullString{String: note, Valid: true}
			return nil
		},
		func(c *contract.Contract) *event.Event {
			var recipient *int64
			if c.ServiceStaffID.Valid {
				recipient = &c.ServiceStaffID.Int64
			}
			return event.New(event.KindContractAnnulled, c.ID, actorID, recipient, staff.RoleServiceStaff, map[string]interface{}{
				"contract_number": c.ContractNumber,
				"reason":          req.Reason,
			})
		})
}

// Suspend pauses an active contract.
func (s *Service) Suspend(ctx context.Context, id, actorID int64) (*contract.Contract, error) {
	return s.withServiceStatus(ctx, id, actorID, contract.ActionSuspend, servicecontract.StatusSuspended)
}

// Resume reactivates a suspended contract.
func (s *Service) Resume(ctx context.Context, id, actorID int64) (*contract.Contract, error) {
	return s.withServiceStatus(ctx, id, actorID, contract.ActionResume, servicecontract.StatusActive)
}

// Terminate ends the contract and the ongoing service.
func (s *Service) Terminate(ctx context.Context, id, actorID int64) (*contract.Contract, error) {
	return s.withServiceStatus(ctx, id, actorID, contract.ActionTerminate, servicecontract.StatusTerminated)
}

// Expire marks a contract past its term.
func (s *Service) Expire(ctx context.Context, id, actorID int64) (*contract.Contract, error) {
	return s.withServiceStatus(ctx, id, actorID, contract.ActionExpire, servicecontract.StatusExpired)
}

// withServiceStatus applies a post-activation action and mirrors the new
// status onto the service contract inside the same transaction.
func (s *Service) withServiceStatus(ctx context.Context, id, actorID int64, action contract.Action, scStatus servicecontract.Status) (*contract.Contract, error) {
	var result *contract.Contract

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		c, err := s.contracts.FindByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		next, err := contract.NextStatus(c.Status, action)
		if err != nil {
			return err
		}
		c.Status = next

		sc, err := s.serviceContracts.FindByContractID(ctx, c.ID)
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return fmt.Errorf("%w: no service contract for contract %d", xerrors.ErrInvalidState, c.ID)
		}
		if err != nil {
			return err
		}
		if err := s.serviceContracts.UpdateStatusTx(ctx, tx, sc.ID, scStatus); err != nil {
			return err
		}

		if err := s.contracts.UpdateTx(ctx, tx, c); err != nil {
			return err
		}

		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contract transition applied",
		zap.Int64("contract_id", id),
		zap.String("action", string(action)),
		zap.String("status", string(result.Status)),
		zap.Int64("actor_id", actorID))
	return result, nil
}
