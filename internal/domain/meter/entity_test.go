package meter

import (
	"testing"
	"time"

	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus_Lifecycle(t *testing.T) {
	next, err := NextStatus(StatusInStock, ActionInstall)
	require.NoError(t, err)
	assert.Equal(t, StatusInstalled, next)

	next, err = NextStatus(StatusInstalled, ActionRemove)
	require.NoError(t, err)
	assert.Equal(t, StatusInStock, next)

	next, err = NextStatus(StatusInstalled, ActionReportBroken)
	require.NoError(t, err)
	assert.Equal(t, StatusBroken, next)

	next, err = NextStatus(StatusBroken, ActionRepair)
	require.NoError(t, err)
	assert.Equal(t, StatusInStock, next)

	next, err = NextStatus(StatusInstalled, ActionService)
	require.NoError(t, err)
	assert.Equal(t, StatusUnderMaintenance, next)

	// Removing a broken meter keeps it broken until it is repaired.
	next, err = NextStatus(StatusBroken, ActionRemove)
	require.NoError(t, err)
	assert.Equal(t, StatusBroken, next)

	next, err = NextStatus(StatusUnderMaintenance, ActionRepair)
	require.NoError(t, err)
	assert.Equal(t, StatusInstalled, next)
}

func TestNextStatus_Illegal(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
	}{
		{StatusInstalled, ActionInstall},
		{StatusBroken, ActionInstall},
		{StatusInStock, ActionRemove},
		{StatusInstalled, ActionRetire},
		{StatusRetired, ActionInstall},
		{StatusRetired, ActionRepair},
	}
	for _, tc := range cases {
		_, err := NextStatus(tc.from, tc.action)
		require.Error(t, err, "%s from %s", tc.action, tc.from)
		assert.ErrorIs(t, err, xerrors.ErrInvalidState)
	}
}

func TestNewReading_DerivesConsumption(t *testing.T) {
	readAt := time.Now()
	mr, err := NewReading(7, 3, 42, "2025-06", 120.5, 133.25, readAt)
	require.NoError(t, err)

	assert.Equal(t, int64(7), mr.ServiceContractID)
	assert.Equal(t, int64(3), mr.MeterID)
	assert.Equal(t, int64(42), mr.RecordedBy)
	assert.Equal(t, "2025-06", mr.Period)
	assert.Equal(t, 120.5, mr.PreviousValue)
	assert.Equal(t, 133.25, mr.CurrentValue)
	assert.InDelta(t, 12.75, mr.Consumption, 1e-9)
	assert.Equal(t, readAt, mr.ReadAt)
}

func TestNewReading_ZeroConsumption(t *testing.T) {
	mr, err := NewReading(1, 1, 1, "2025-06", 50, 50, time.Now())
	require.NoError(t, err)
	assert.Zero(t, mr.Consumption)
}

func TestNewReading_RejectsDecrease(t *testing.T) {
	_, err := NewReading(1, 1, 1, "2025-06", 100, 99.999, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
