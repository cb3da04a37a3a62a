// internal/event/events.go
package event

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind identifies a lifecycle transition.
type Kind string

const (
	KindContractRequestCreated     Kind = "contract.request_created"
	KindSurveyReportSubmitted      Kind = "contract.survey_submitted"
	KindSurveyReportApproved       Kind = "contract.survey_approved"
	KindCustomerSignedContract     Kind = "contract.customer_signed"
	KindContractSentToInstallation Kind = "contract.sent_to_installation"
	KindInstallationCompleted      Kind = "contract.installation_completed"
	KindContractAnnulled           Kind = "contract.annulled"
	KindInvoicePaid                Kind = "billing.invoice_paid"
)

// Event is an immutable record of a lifecycle transition. Its ID doubles as
// the idempotency key for downstream consumers: redelivery of the same event
// must be a no-op.
type Event struct {
	ID          string                 `json:"id"`
	Kind        Kind                   `json:"kind"`
	ContractID  int64                  `json:"contract_id"`
	ActorID     int64                  `json:"actor_id"`
	RecipientID *int64                 `json:"recipient_id,omitempty"`
	TargetRole  string                 `json:"target_role,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// New builds an event addressed to a specific recipient when recipientID is
// non-nil, otherwise to every current member of targetRole.
func New(kind Kind, contractID, actorID int64, recipientID *int64, targetRole string, data map[string]interface{}) *Event {
	return &Event{
		ID:          ulid.Make().String(),
		Kind:        kind,
		ContractID:  contractID,
		ActorID:     actorID,
		RecipientID: recipientID,
		TargetRole:  targetRole,
		OccurredAt:  time.Now(),
		Data:        data,
	}
}

// Marshal serializes the event for the outbox payload column.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes an outbox payload back into an event.
func Unmarshal(payload []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// OutboxRow is the persisted form of a pending event.
type OutboxRow struct {
	ID          string     `json:"id" db:"id"` // event id / idempotency key
	Kind        Kind       `json:"kind" db:"kind"`
	Payload     []byte     `json:"-" db:"payload"`
	Attempts    int        `json:"attempts" db:"attempts"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
}
