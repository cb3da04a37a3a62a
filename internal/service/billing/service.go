// internal/service/billing/service.go
package billing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aquaflow-service/internal/domain/billing"
	"aquaflow-service/internal/domain/meter"
	"aquaflow-service/internal/domain/servicecontract"
	"aquaflow-service/internal/domain/staff"
	"aquaflow-service/internal/event"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type InvoiceRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, inv *billing.Invoice, details []billing.InvoiceDetail) error
	FindByID(ctx context.Context, id int64) (*billing.Invoice, error)
	FindByIDTx(ctx context.Context, tx pgx.Tx, id int64) (*billing.Invoice, error)
	ListDetails(ctx context.Context, invoiceID int64) ([]billing.InvoiceDetail, error)
	UpdatePaymentTx(ctx context.Context, tx pgx.Tx, inv *billing.Invoice) error
	CreateReceiptTx(ctx context.Context, tx pgx.Tx, rc *billing.Receipt) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	ListByServiceContract(ctx context.Context, serviceContractID int64, limit int) ([]billing.Invoice, error)
}

type ReadingRepo interface {
	FindByPeriod(ctx context.Context, serviceContractID int64, period string) (*meter.MeterReading, error)
}

type ServiceContractRepo interface {
	FindByID(ctx context.Context, id int64) (*servicecontract.WaterServiceContract, error)
}

type OutboxWriter interface {
	EnqueueTx(ctx context.Context, tx pgx.Tx, ev *event.Event) error
}

// Service issues invoices from recorded consumption and settles them
// through cashier payments.
type Service struct {
	db               TxRunner
	invoices         InvoiceRepo
	readings         ReadingRepo
	serviceContracts ServiceContractRepo
	outbox           OutboxWriter
	logger           *zap.Logger
}

func NewService(
	db TxRunner,
	invoices InvoiceRepo,
	readings ReadingRepo,
	serviceContracts ServiceContractRepo,
	outbox OutboxWriter,
	logger *zap.Logger,
) *Service {
	return &Service{
		db:               db,
		invoices:         invoices,
		readings:         readings,
		serviceContracts: serviceContracts,
		outbox:           outbox,
		logger:           logger,
	}
}

// GenerateInvoice bills one service contract for one period. The consumption
// line comes from the period's recorded reading; the fixed monthly fee is
// added as a second line when requested.
func (s *Service) GenerateInvoice(ctx context.Context, serviceContractID int64, req *billing.GenerateInvoiceRequest) (*billing.Invoice, error) {
	sc, err := s.serviceContracts.FindByID(ctx, serviceContractID)
	if err != nil {
		return nil, err
	}
	if sc.Status != servicecontract.StatusActive {
		return nil, fmt.Errorf("%w: service contract %d is %s", xerrors.ErrInvalidState, sc.ID, sc.Status)
	}

	mr, err := s.readings.FindByPeriod(ctx, serviceContractID, req.Period)
	if err != nil {
		return nil, fmt.Errorf("no reading for period %s: %w", req.Period, err)
	}

	details := []billing.InvoiceDetail{
		{
			Description: fmt.Sprintf("Water consumption %s (%.3f m3)", req.Period, mr.Consumption),
			Quantity:    mr.Consumption,
			UnitPrice:   req.UnitPrice,
			Amount:      mr.Consumption * req.UnitPrice,
		},
	}
	if req.IncludeFixedFee && sc.MonthlyFee > 0 {
		details = append(details, billing.InvoiceDetail{
			Description: fmt.Sprintf("Monthly service fee %s", req.Period),
			Quantity:    1,
			UnitPrice:   sc.MonthlyFee,
			Amount:      sc.MonthlyFee,
		})
	}

	total := 0.0
	for _, d := range details {
		total += d.Amount
	}

	dueInDays := req.DueInDays
	if dueInDays == 0 {
		dueInDays = 15
	}

	now := time.Now()
	inv := &billing.Invoice{
		InvoiceNumber:     "INV-" + ulid.Make().String(),
		ServiceContractID: serviceContractID,
		Period:            req.Period,
		Status:            billing.StatusPending,
		TotalAmount:       total,
		DueDate:           now.AddDate(0, 0, dueInDays),
		IssuedAt:          now,
	}

	err = s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.invoices.CreateTx(ctx, tx, inv, details)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice generated",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int64("service_contract_id", serviceContractID),
		zap.String("period", req.Period),
		zap.Float64("total", total))
	return inv, nil
}

// Get returns an invoice with its line items.
func (s *Service) Get(ctx context.Context, id int64) (*billing.Invoice, []billing.InvoiceDetail, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	details, err := s.invoices.ListDetails(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return inv, details, nil
}

// ListByServiceContract returns recent invoices for a service contract.
func (s *Service) ListByServiceContract(ctx context.Context, serviceContractID int64, limit int) ([]billing.Invoice, error) {
	if limit < 1 || limit > 100 {
		limit = 24
	}
	return s.invoices.ListByServiceContract(ctx, serviceContractID, limit)
}

// RecordPayment settles part or all of an invoice. The invoice row is locked
// for the duration; a payment above the remaining balance is rejected. A
// payment that clears the balance marks the invoice paid and emits the
// settlement event.
func (s *Service) RecordPayment(ctx context.Context, invoiceID, cashierID int64, req *billing.RecordPaymentRequest) (*billing.PaymentResult, error) {
	var result *billing.PaymentResult

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		inv, err := s.invoices.FindByIDTx(ctx, tx, invoiceID)
		if err != nil {
			return err
		}

		if err := billing.CheckAction(inv.Status, billing.ActionPay); err != nil {
			return err
		}

		remaining := inv.Remaining()
		if req.Amount > remaining {
			return fmt.Errorf("%w: payment %.2f exceeds remaining balance %.2f", xerrors.ErrInvalidInput, req.Amount, remaining)
		}

		now := time.Now()
		inv.PaidAmount += req.Amount
		// Amounts are float sums; treat sub-cent residue as settled.
		if inv.Remaining() < 0.005 {
			inv.Status = billing.StatusPaid
			inv.PaidAt = sql.NullTime{Time: now, Valid: true}
		} else {
			inv.Status = billing.StatusPartiallyPaid
		}

		if err := s.invoices.UpdatePaymentTx(ctx, tx, inv); err != nil {
			return err
		}

		rc := &billing.Receipt{
			ReceiptNumber: "RC-" + ulid.Make().String(),
			InvoiceID:     inv.ID,
			CashierID:     cashierID,
			Amount:        req.Amount,
			Method:        req.Method,
			PaidAt:        now,
		}
		if err := s.invoices.CreateReceiptTx(ctx, tx, rc); err != nil {
			return err
		}

		if inv.Status == billing.StatusPaid {
			ev := event.New(event.KindInvoicePaid, inv.ServiceContractID, cashierID, nil, staff.RoleServiceStaff, map[string]interface{}{
				"invoice_number": inv.InvoiceNumber,
				"period":         inv.Period,
				"total_amount":   inv.TotalAmount,
			})
			if err := s.outbox.EnqueueTx(ctx, tx, ev); err != nil {
				return err
			}
		}

		result = &billing.PaymentResult{Invoice: inv, Receipt: rc}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.Int64("invoice_id", invoiceID),
		zap.Float64("amount", req.Amount),
		zap.String("status", string(result.Invoice.Status)))
	return result, nil
}

// Cancel voids an unpaid invoice.
func (s *Service) Cancel(ctx context.Context, invoiceID int64) (*billing.Invoice, error) {
	var result *billing.Invoice

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		inv, err := s.invoices.FindByIDTx(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if err := billing.CheckAction(inv.Status, billing.ActionCancel); err != nil {
			return err
		}

		inv.Status = billing.StatusCancelled
		if err := s.invoices.UpdatePaymentTx(ctx, tx, inv); err != nil {
			return err
		}

		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkOverdueInvoices sweeps unpaid invoices past their due date. Meant to
// run periodically; returns the number of invoices flipped.
func (s *Service) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.invoices.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("invoices marked overdue", zap.Int64("count", n))
	}
	return n, nil
}
