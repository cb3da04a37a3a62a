package contract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"aquaflow-service/internal/domain/contract"
	"aquaflow-service/internal/domain/meter"
	"aquaflow-service/internal/domain/servicecontract"
	"aquaflow-service/internal/domain/staff"
	"aquaflow-service/internal/event"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixture is an in-memory stand-in for the postgres layer. It implements
// every repo interface the service needs plus TxRunner; WithinTx snapshots
// the state and restores it when the callback fails, so rollback behavior
// can be asserted.
type fixture struct {
	contracts        map[int64]contract.Contract
	serviceContracts map[int64]servicecontract.WaterServiceContract
	meters           map[string]meter.WaterMeter
	installations    []meter.MeterInstallation
	readings         []meter.MeterReading
	events           []*event.Event

	nextContractID int64
	nextSCID       int64

	updateErr error // injected on ContractRepo.UpdateTx
	scFindErr error // injected on ServiceContractRepo.FindByContractID
}

func newFixture() *fixture {
	return &fixture{
		contracts:        make(map[int64]contract.Contract),
		serviceContracts: make(map[int64]servicecontract.WaterServiceContract),
		meters:           make(map[string]meter.WaterMeter),
	}
}

type snapshot struct {
	contracts        map[int64]contract.Contract
	serviceContracts map[int64]servicecontract.WaterServiceContract
	meters           map[string]meter.WaterMeter
	installations    []meter.MeterInstallation
	readings         []meter.MeterReading
	events           []*event.Event
}

func (f *fixture) take() snapshot {
	s := snapshot{
		contracts:        make(map[int64]contract.Contract, len(f.contracts)),
		serviceContracts: make(map[int64]servicecontract.WaterServiceContract, len(f.serviceContracts)),
		meters:           make(map[string]meter.WaterMeter, len(f.meters)),
		installations:    append([]meter.MeterInstallation(nil), f.installations...),
		readings:         append([]meter.MeterReading(nil), f.readings...),
		events:           append([]*event.Event(nil), f.events...),
	}
	for k, v := range f.contracts {
		s.contracts[k] = v
	}
	for k, v := range f.serviceContracts {
		s.serviceContracts[k] = v
	}
	for k, v := range f.meters {
		s.meters[k] = v
	}
	return s
}

func (f *fixture) restore(s snapshot) {
	f.contracts = s.contracts
	f.serviceContracts = s.serviceContracts
	f.meters = s.meters
	f.installations = s.installations
	f.readings = s.readings
	f.events = s.events
}

func (f *fixture) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	snap := f.take()
	if err := fn(ctx, nil); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

// ContractRepo

func (f *fixture) CreateTx(ctx context.Context, tx pgx.Tx, c *contract.Contract) error {
	f.nextContractID++
	c.ID = f.nextContractID
	c.Version = 1
	c.CreatedAt = time.Now()
	f.contracts[c.ID] = *c
	return nil
}

func (f *fixture) FindByID(ctx context.Context, id int64) (*contract.Contract, error) {
	c, ok := f.contracts[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &c, nil
}

func (f *fixture) FindByIDTx(ctx context.Context, tx pgx.Tx, id int64) (*contract.Contract, error) {
	return f.FindByID(ctx, id)
}

func (f *fixture) UpdateTx(ctx context.Context, tx pgx.Tx, c *contract.Contract) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.contracts[c.ID]
	if !ok {
		return xerrors.ErrNotFound
	}
	if stored.Version != c.Version {
		return xerrors.ErrVersionConflict
	}
	c.Version++
	f.contracts[c.ID] = *c
	return nil
}

func (f *fixture) List(ctx context.Context, filters *contract.ContractListFilters) ([]contract.Contract, int64, error) {
	out := make([]contract.Contract, 0, len(f.contracts))
	for _, c := range f.contracts {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

// ServiceContractRepo

func (f *fixture) createServiceContract(sc *servicecontract.WaterServiceContract) {
	f.nextSCID++
	sc.ID = f.nextSCID
	f.serviceContracts[sc.ID] = *sc
}

func (f *fixture) FindByContractID(ctx context.Context, contractID int64) (*servicecontract.WaterServiceContract, error) {
	if f.scFindErr != nil {
		return nil, f.scFindErr
	}
	for _, sc := range f.serviceContracts {
		if sc.ContractID == contractID {
			out := sc
			return &out, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fixture) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status servicecontract.Status) error {
	sc, ok := f.serviceContracts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	sc.Status = status
	f.serviceContracts[id] = sc
	return nil
}

// scRepo adapts the fixture to the ServiceContractRepo interface; CreateTx
// clashes with ContractRepo's method of the same name.
type scRepo struct{ fx *fixture }

func (r scRepo) CreateTx(ctx context.Context, tx pgx.Tx, sc *servicecontract.WaterServiceContract) error {
	r.fx.createServiceContract(sc)
	return nil
}

func (r scRepo) FindByContractID(ctx context.Context, contractID int64) (*servicecontract.WaterServiceContract, error) {
	return r.fx.FindByContractID(ctx, contractID)
}

func (r scRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status servicecontract.Status) error {
	return r.fx.UpdateStatusTx(ctx, tx, id, status)
}

// MeterRepo

type meterRepo struct{ fx *fixture }

func (r meterRepo) FindByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*meter.WaterMeter, error) {
	m, ok := r.fx.meters[code]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &m, nil
}

func (r meterRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, meterID int64, status meter.Status) error {
	for code, m := range r.fx.meters {
		if m.ID == meterID {
			m.Status = status
			r.fx.meters[code] = m
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (r meterRepo) CreateInstallationTx(ctx context.Context, tx pgx.Tx, mi *meter.MeterInstallation) error {
	mi.ID = int64(len(r.fx.installations) + 1)
	r.fx.installations = append(r.fx.installations, *mi)
	return nil
}

// ReadingRepo

type readingRepo struct{ fx *fixture }

func (r readingRepo) CreateTx(ctx context.Context, tx pgx.Tx, mr *meter.MeterReading) error {
	mr.ID = int64(len(r.fx.readings) + 1)
	r.fx.readings = append(r.fx.readings, *mr)
	return nil
}

// OutboxWriter

type outbox struct{ fx *fixture }

func (o outbox) EnqueueTx(ctx context.Context, tx pgx.Tx, ev *event.Event) error {
	o.fx.events = append(o.fx.events, ev)
	return nil
}

func newTestService(fx *fixture) *Service {
	return NewService(fx, fx, scRepo{fx}, meterRepo{fx}, readingRepo{fx}, outbox{fx}, zap.NewNop())
}

func seedContract(fx *fixture, status contract.Status) *contract.Contract {
	fx.nextContractID++
	c := contract.Contract{
		ID:             fx.nextContractID,
		ContractNumber: "CT-TEST",
		ContactPhone:   "0900000000",
		Address:        "12 Riverside Rd",
		Status:         status,
		Version:        1,
	}
	fx.contracts[c.ID] = c
	return &c
}

func TestCreate_WritesContractAndEvent(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)

	c, err := svc.Create(context.Background(), 5, &contract.CreateContractRequest{
		ContactPhone: "0911222333",
		ContactName:  "Linh Tran",
		Address:      "45 Harbor St",
	})
	require.NoError(t, err)

	assert.Equal(t, contract.StatusPending, c.Status)
	assert.True(t, strings.HasPrefix(c.ContractNumber, "CT-"))
	assert.False(t, c.CustomerID.Valid)

	require.Len(t, fx.events, 1)
	ev := fx.events[0]
	assert.Equal(t, event.KindContractRequestCreated, ev.Kind)
	assert.Equal(t, staff.RoleServiceStaff, ev.TargetRole)
	assert.Nil(t, ev.RecipientID)
	assert.Equal(t, c.ID, ev.ContractID)
	assert.Equal(t, int64(5), ev.ActorID)
}

func TestCreate_DraftHoldsBackEvent(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)

	c, err := svc.Create(context.Background(), 5, &contract.CreateContractRequest{
		ContactPhone: "0911222333",
		Address:      "45 Harbor St",
		Draft:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, contract.StatusDraft, c.Status)
	assert.Empty(t, fx.events)
}

func TestSubmit_MovesDraftIntoQueue(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)
	ctx := context.Background()

	c := seedContract(fx, contract.StatusDraft)

	got, err := svc.Submit(ctx, c.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusPending, got.Status)

	require.Len(t, fx.events, 1)
	assert.Equal(t, event.KindContractRequestCreated, fx.events[0].Kind)
	assert.Equal(t, staff.RoleServiceStaff, fx.events[0].TargetRole)

	// A request already in the queue cannot be submitted again.
	_, err = svc.Submit(ctx, c.ID, 5)
	assert.ErrorIs(t, err, xerrors.ErrInvalidState)
	assert.Len(t, fx.events, 1)
}

func TestLifecycle_OneEventPerTransition(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)
	ctx := context.Background()

	c := seedContract(fx, contract.StatusPending)

	// Technician 10 files the survey; service staff review it next.
	_, err := svc.SubmitSurvey(ctx, c.ID, 10, &contract.SubmitSurveyRequest{
		SurveyDate:  time.Now(),
		SurveyNotes: "pipe access is fine",
	})
	require.NoError(t, err)
	require.Len(t, fx.events, 1)
	assert.Equal(t, event.KindSurveyReportSubmitted, fx.events[0].Kind)
	assert.Equal(t, staff.RoleServiceStaff, fx.events[0].TargetRole)

	// Service staff member 7 approves and becomes the contract's owner.
	_, err = svc.ApproveSurvey(ctx, c.ID, 7, &contract.ApproveSurveyRequest{
		InstallationFee: 1500,
		MonthlyFee:      30,
	})
	require.NoError(t, err)
	require.Len(t, fx.events, 2)
	assert.Equal(t, event.KindSurveyReportApproved, fx.events[1].Kind)
	// The surveying technician gets the approval directly.
	require.NotNil(t, fx.events[1].RecipientID)
	assert.Equal(t, int64(10), *fx.events[1].RecipientID)

	afterApprove, _ := fx.FindByID(ctx, c.ID)
	require.True(t, afterApprove.ServiceStaffID.Valid)
	assert.Equal(t, int64(7), afterApprove.ServiceStaffID.Int64)
	require.True(t, afterApprove.TechnicalStaffID.Valid)
	assert.Equal(t, int64(10), afterApprove.TechnicalStaffID.Int64)

	// Moving to signature produces no notification.
	_, err = svc.SendForSignature(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Len(t, fx.events, 2)

	_, err = svc.Sign(ctx, c.ID, 10)
	require.NoError(t, err)
	require.Len(t, fx.events, 3)
	assert.Equal(t, event.KindCustomerSignedContract, fx.events[2].Kind)

	_, err = svc.SendToInstallation(ctx, c.ID, 1, &contract.SendToInstallationRequest{
		TechnicalStaffID: 20,
		InstallationDate: time.Now().AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	require.Len(t, fx.events, 4)
	require.NotNil(t, fx.events[3].RecipientID)
	assert.Equal(t, int64(20), *fx.events[3].RecipientID)

	got, _ := fx.FindByID(ctx, c.ID)
	assert.Equal(t, contract.StatusInInstallation, got.Status)
	assert.Equal(t, 1500.0, got.InstallationFee)
	assert.Equal(t, 30.0, got.MonthlyFee)
	assert.True(t, got.SignedAt.Valid)
}

func TestCompleteInstallation_ActivatesEverything(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)
	ctx := context.Background()

	c := seedContract(fx, contract.StatusInInstallation)
	stored := fx.contracts[c.ID]
	stored.MonthlyFee = 25
	fx.contracts[c.ID] = stored
	fx.meters["WM-001"] = meter.WaterMeter{ID: 1, MeterCode: "WM-001", Status: meter.StatusInStock}

	_, err := svc.CompleteInstallation(ctx, c.ID, 20, &contract.CompleteInstallationRequest{
		MeterCode:      "WM-001",
		InitialReading: 10.5,
	})
	require.NoError(t, err)

	got, _ := fx.FindByID(ctx, c.ID)
	assert.Equal(t, contract.StatusActive, got.Status)

	sc, err := fx.FindByContractID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, servicecontract.StatusActive, sc.Status)
	assert.Equal(t, 25.0, sc.MonthlyFee)
	assert.Equal(t, c.ContractNumber, sc.ContractNumber)

	assert.Equal(t, meter.StatusInstalled, fx.meters["WM-001"].Status)

	require.Len(t, fx.installations, 1)
	assert.Equal(t, sc.ID, fx.installations[0].ServiceContractID)
	assert.Equal(t, 10.5, fx.installations[0].InitialReading)

	// Baseline reading carries zero consumption.
	require.Len(t, fx.readings, 1)
	assert.Equal(t, 10.5, fx.readings[0].PreviousValue)
	assert.Equal(t, 10.5, fx.readings[0].CurrentValue)
	assert.Zero(t, fx.readings[0].Consumption)

	require.Len(t, fx.events, 1)
	assert.Equal(t, event.KindInstallationCompleted, fx.events[0].Kind)
}

func TestCompleteInstallation_RollsBackWhenMeterUnavailable(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)
	ctx := context.Background()

	c := seedContract(fx, contract.StatusInInstallation)
	// The meter is already mounted elsewhere, so the install action is illegal.
	fx.meters["WM-002"] = meter.WaterMeter{ID: 2, MeterCode: "WM-002", Status: meter.StatusInstalled}

	_, err := svc.CompleteInstallation(ctx, c.ID, 20, &contract.CompleteInstallationRequest{
		MeterCode:      "WM-002",
		InitialReading: 0,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidState)

	got, _ := fx.FindByID(ctx, c.ID)
	assert.Equal(t, contract.StatusInInstallation, got.Status)
	assert.Empty(t, fx.serviceContracts)
	assert.Empty(t, fx.installations)
	assert.Empty(t, fx.readings)
	assert.Empty(t, fx.events)
}

func TestTransition_IllegalActionRejected(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)
	ctx := context.Background()

	c := seedContract(fx, contract.StatusApproved)

	_, err := svc.SubmitSurvey(ctx, c.ID, 10, &contract.SubmitSurveyRequest{
		SurveyDate:  time.Now(),
		SurveyNotes: "n/a",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidState)

	got, _ := fx.FindByID(ctx, c.ID)
	assert.Equal(t, contract.StatusApproved, got.Status)
	assert.Empty(t, fx.events)
}

func TestTransition_VersionConflictRollsBackEvent(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)
	ctx := context.Background()

	c := seedContract(fx, contract.StatusPendingSign)
	fx.updateErr = xerrors.ErrVersionConflict

	_, err := svc.Sign(ctx, c.ID, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrVersionConflict)
	assert.Empty(t, fx.events)
}

func TestAnnul_AppendsReason(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)

	c := seedContract(fx, contract.StatusPending)

	got, err := svc.Annul(context.Background(), c.ID, 1, &contract.AnnulContractRequest{Reason: "customer withdrew"})
	require.NoError(t, err)
	assert.Equal(t, contract.StatusAnnulled, got.Status)
	assert.Contains(t, got.Notes.String, "customer withdrew")

	require.Len(t, fx.events, 1)
	assert.Equal(t, event.KindContractAnnulled, fx.events[0].Kind)
}

func TestSuspendResumeTerminate_MirrorsServiceContract(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)
	ctx := context.Background()

	c := seedContract(fx, contract.StatusActive)
	fx.createServiceContract(&servicecontract.WaterServiceContract{
		ContractID: c.ID,
		Status:     servicecontract.StatusActive,
	})

	got, err := svc.Suspend(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusSuspended, got.Status)
	sc, _ := fx.FindByContractID(ctx, c.ID)
	assert.Equal(t, servicecontract.StatusSuspended, sc.Status)

	got, err = svc.Resume(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusActive, got.Status)
	sc, _ = fx.FindByContractID(ctx, c.ID)
	assert.Equal(t, servicecontract.StatusActive, sc.Status)

	got, err = svc.Terminate(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusTerminated, got.Status)
	sc, _ = fx.FindByContractID(ctx, c.ID)
	assert.Equal(t, servicecontract.StatusTerminated, sc.Status)

	// Terminal contracts accept nothing further.
	_, err = svc.Resume(ctx, c.ID, 1)
	assert.ErrorIs(t, err, xerrors.ErrInvalidState)
}

func TestSuspend_WithoutServiceContract(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)

	c := seedContract(fx, contract.StatusActive)

	_, err := svc.Suspend(context.Background(), c.ID, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidState)

	got, _ := fx.FindByID(context.Background(), c.ID)
	assert.Equal(t, contract.StatusActive, got.Status)
}

func TestSuspend_RepositoryErrorIsNotMasked(t *testing.T) {
	fx := newFixture()
	svc := newTestService(fx)

	c := seedContract(fx, contract.StatusActive)
	fx.scFindErr = errors.New("connection reset")

	_, err := svc.Suspend(context.Background(), c.ID, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, xerrors.ErrInvalidState)
	assert.ErrorContains(t, err, "connection reset")
}
