package contract

import (
	"testing"

	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus_HappyPath(t *testing.T) {
	steps := []struct {
		action Action
		want   Status
	}{
		{ActionSubmitSurvey, StatusPendingSurveyReview},
		{ActionApproveSurvey, StatusApproved},
		{ActionSendForSignature, StatusPendingSign},
		{ActionSign, StatusSigned},
		{ActionSendToInstallation, StatusInInstallation},
		{ActionCompleteInstallation, StatusActive},
	}

	current := StatusPending
	for _, step := range steps {
		next, err := NextStatus(current, step.action)
		require.NoError(t, err, "action %s from %s", step.action, current)
		assert.Equal(t, step.want, next)
		current = next
	}
}

func TestNextStatus_PostActivation(t *testing.T) {
	next, err := NextStatus(StatusActive, ActionSuspend)
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, next)

	next, err = NextStatus(StatusSuspended, ActionResume)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, next)

	next, err = NextStatus(StatusActive, ActionTerminate)
	require.NoError(t, err)
	assert.Equal(t, StatusTerminated, next)

	next, err = NextStatus(StatusSuspended, ActionTerminate)
	require.NoError(t, err)
	assert.Equal(t, StatusTerminated, next)

	next, err = NextStatus(StatusActive, ActionExpire)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, next)
}

func TestNextStatus_AnnulOnlyBeforeActivation(t *testing.T) {
	annullable := []Status{
		StatusDraft, StatusPending, StatusPendingSurveyReview,
		StatusApproved, StatusPendingSign, StatusSigned, StatusInInstallation,
	}
	for _, status := range annullable {
		next, err := NextStatus(status, ActionAnnul)
		require.NoError(t, err, "annul from %s", status)
		assert.Equal(t, StatusAnnulled, next)
	}

	notAnnullable := []Status{
		StatusActive, StatusSuspended, StatusExpired, StatusTerminated, StatusAnnulled,
	}
	for _, status := range notAnnullable {
		_, err := NextStatus(status, ActionAnnul)
		assert.ErrorIs(t, err, xerrors.ErrInvalidState, "annul from %s", status)
	}
}

func TestNextStatus_IllegalTransitions(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
	}{
		{StatusPending, ActionApproveSurvey},
		{StatusPending, ActionSign},
		{StatusApproved, ActionSign},
		{StatusSigned, ActionCompleteInstallation},
		{StatusActive, ActionSubmitSurvey},
		{StatusActive, ActionCompleteInstallation},
		{StatusSuspended, ActionExpire},
		{StatusTerminated, ActionResume},
		{StatusExpired, ActionSuspend},
		{StatusAnnulled, ActionSubmitSurvey},
	}
	for _, tc := range cases {
		_, err := NextStatus(tc.from, tc.action)
		require.Error(t, err, "%s from %s", tc.action, tc.from)
		assert.ErrorIs(t, err, xerrors.ErrInvalidState)
	}
}

func TestNextStatus_TerminalStatesHaveNoActions(t *testing.T) {
	terminal := []Status{StatusExpired, StatusTerminated, StatusAnnulled}
	actions := []Action{
		ActionSubmit, ActionSubmitSurvey, ActionApproveSurvey, ActionSendForSignature,
		ActionSign, ActionSendToInstallation, ActionCompleteInstallation,
		ActionAnnul, ActionSuspend, ActionResume, ActionTerminate, ActionExpire,
	}
	for _, status := range terminal {
		for _, action := range actions {
			assert.False(t, CanApply(status, action), "%s must not accept %s", status, action)
		}
	}
}

func TestIsClosed(t *testing.T) {
	assert.True(t, (&Contract{Status: StatusExpired}).IsClosed())
	assert.True(t, (&Contract{Status: StatusTerminated}).IsClosed())
	assert.True(t, (&Contract{Status: StatusAnnulled}).IsClosed())
	assert.False(t, (&Contract{Status: StatusActive}).IsClosed())
	assert.False(t, (&Contract{Status: StatusSuspended}).IsClosed())
	assert.False(t, (&Contract{Status: StatusPending}).IsClosed())
}
