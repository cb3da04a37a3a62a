package billing

import (
	"testing"

	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestCheckAction(t *testing.T) {
	cases := []struct {
		status PaymentStatus
		action Action
		legal  bool
	}{
		{StatusPending, ActionPay, true},
		{StatusPending, ActionCancel, true},
		{StatusPending, ActionMarkOverdue, true},
		{StatusPartiallyPaid, ActionPay, true},
		{StatusPartiallyPaid, ActionMarkOverdue, true},
		{StatusPartiallyPaid, ActionCancel, false},
		{StatusOverdue, ActionPay, true},
		{StatusOverdue, ActionCancel, true},
		{StatusOverdue, ActionMarkOverdue, false},
		{StatusPaid, ActionPay, false},
		{StatusPaid, ActionCancel, false},
		{StatusPaid, ActionMarkOverdue, false},
		{StatusCancelled, ActionPay, false},
		{StatusCancelled, ActionCancel, false},
	}
	for _, tc := range cases {
		err := CheckAction(tc.status, tc.action)
		if tc.legal {
			assert.NoError(t, err, "%s on %s", tc.action, tc.status)
		} else {
			assert.ErrorIs(t, err, xerrors.ErrInvalidState, "%s on %s", tc.action, tc.status)
		}
	}
}

func TestInvoiceRemaining(t *testing.T) {
	inv := &Invoice{TotalAmount: 250, PaidAmount: 100}
	assert.Equal(t, 150.0, inv.Remaining())

	inv.PaidAmount = 250
	assert.Zero(t, inv.Remaining())
}
