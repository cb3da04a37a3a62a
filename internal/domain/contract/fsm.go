// internal/domain/contract/fsm.go
package contract

import (
	"fmt"

	xerrors "aquaflow-service/internal/pkg/errors"
)

// Action is a lifecycle operation applied to a contract.
type Action string

const (
	ActionSubmit               Action = "submit"
	ActionSubmitSurvey         Action = "submit_survey"
	ActionApproveSurvey        Action = "approve_survey"
	ActionSendForSignature     Action = "send_for_signature"
	ActionSign                 Action = "sign"
	ActionSendToInstallation   Action = "send_to_installation"
	ActionCompleteInstallation Action = "complete_installation"
	ActionAnnul                Action = "annul"
	ActionSuspend              Action = "suspend"
	ActionResume               Action = "resume"
	ActionTerminate            Action = "terminate"
	ActionExpire               Action = "expire"
)

// transitions is the single authoritative state table. Every mutating entry
// point consults it; there are no ad-hoc status checks anywhere else.
var transitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionSubmit: StatusPending,
		ActionAnnul:  StatusAnnulled,
	},
	StatusPending: {
		ActionSubmitSurvey: StatusPendingSurveyReview,
		ActionAnnul:        StatusAnnulled,
	},
	StatusPendingSurveyReview: {
		ActionApproveSurvey: StatusApproved,
		ActionAnnul:         StatusAnnulled,
	},
	StatusApproved: {
		ActionSendForSignature: StatusPendingSign,
		ActionAnnul:            StatusAnnulled,
	},
	StatusPendingSign: {
		ActionSign:  StatusSigned,
		ActionAnnul: StatusAnnulled,
	},
	StatusSigned: {
		ActionSendToInstallation: StatusInInstallation,
		ActionAnnul:              StatusAnnulled,
	},
	StatusInInstallation: {
		ActionCompleteInstallation: StatusActive,
		ActionAnnul:                StatusAnnulled,
	},
	StatusActive: {
		ActionSuspend:   StatusSuspended,
		ActionTerminate: StatusTerminated,
		ActionExpire:    StatusExpired,
	},
	StatusSuspended: {
		ActionResume:    StatusActive,
		ActionTerminate: StatusTerminated,
	},
}

// NextStatus resolves the status an action leads to from the current one.
// An unknown (status, action) pair is an illegal transition.
func NextStatus(current Status, action Action) (Status, error) {
	if actions, ok := transitions[current]; ok {
		if next, ok := actions[action]; ok {
			return next, nil
		}
	}
	return "", fmt.Errorf("%w: cannot %s a contract in status %q", xerrors.ErrInvalidState, action, current)
}

// CanApply reports whether an action is legal from the current status.
func CanApply(current Status, action Action) bool {
	_, err := NextStatus(current, action)
	return err == nil
}
