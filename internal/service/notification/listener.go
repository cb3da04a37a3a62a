// internal/service/notification/listener.go
package notification

import (
	"context"
	"database/sql"
	"fmt"

	"aquaflow-service/internal/domain/notification"
	wstypes "aquaflow-service/internal/domain/websocket"
	"aquaflow-service/internal/event"

	"go.uber.org/zap"
)

// StaffDirectory resolves role fan-out targets. Membership is read fresh on
// every event so role changes take effect immediately.
type StaffDirectory interface {
	FindIDsByRole(ctx context.Context, role string) ([]int64, error)
}

// Listener turns lifecycle events into per-recipient notifications and
// pushes them to connected staff. Duplicate deliveries of the same event are
// absorbed by the store's (event_id, recipient_id) uniqueness.
type Listener struct {
	store  Store
	staff  StaffDirectory
	pusher Pusher
	logger *zap.Logger
}

func NewListener(store Store, staff StaffDirectory, pusher Pusher, logger *zap.Logger) *Listener {
	return &Listener{store: store, staff: staff, pusher: pusher, logger: logger}
}

func (l *Listener) Name() string { return "notification" }

// Handle fans one event out. A direct recipient gets exactly one copy; a
// role-targeted event gets one copy per current member. One failing
// recipient does not abort the rest, but the event is reported failed so
// the dispatcher retries it; dedup keeps the retry from double-writing.
func (l *Listener) Handle(ctx context.Context, ev *event.Event) error {
	recipients, err := l.resolveRecipients(ctx, ev)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		l.logger.Warn("event has no recipients",
			zap.String("event_id", ev.ID),
			zap.String("kind", string(ev.Kind)),
			zap.String("target_role", ev.TargetRole))
		return nil
	}

	title, message := describe(ev)

	var failed int
	for _, recipientID := range recipients {
		n := &notification.Notification{
			RecipientID: recipientID,
			EventID:     sql.NullString{String: ev.ID, Valid: true},
			Title:       title,
			Message:     message,
			Type:        typeOf(ev.Kind),
			Metadata:    ev.Data,
		}

		created, err := l.store.Create(ctx, n)
		if err != nil {
			failed++
			l.logger.Error("failed to store notification",
				zap.String("event_id", ev.ID),
				zap.Int64("recipient_id", recipientID),
				zap.Error(err))
			continue
		}
		if !created {
			// Already delivered on a previous attempt.
			continue
		}

		l.push(ctx, n)
	}

	if failed > 0 {
		return fmt.Errorf("event %s: %d of %d recipients failed", ev.ID, failed, len(recipients))
	}
	return nil
}

func (l *Listener) resolveRecipients(ctx context.Context, ev *event.Event) ([]int64, error) {
	if ev.RecipientID != nil {
		return []int64{*ev.RecipientID}, nil
	}
	if ev.TargetRole == "" {
		return nil, nil
	}
	ids, err := l.staff.FindIDsByRole(ctx, ev.TargetRole)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve role %s: %w", ev.TargetRole, err)
	}
	return ids, nil
}

func (l *Listener) push(ctx context.Context, n *notification.Notification) {
	if !l.pusher.IsConnected(n.RecipientID) {
		return
	}

	l.pusher.PushNotification(n.RecipientID, &wstypes.NotificationData{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		IsRead:    n.IsRead,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	})

	count, err := l.store.GetUnreadCount(ctx, n.RecipientID)
	if err != nil {
		l.logger.Warn("failed to get unread count", zap.Int64("recipient_id", n.RecipientID), zap.Error(err))
		return
	}
	l.pusher.PushUnreadCount(n.RecipientID, count)
}

func typeOf(kind event.Kind) notification.NotificationType {
	if kind == event.KindInvoicePaid {
		return notification.TypeBilling
	}
	return notification.TypeContract
}

// describe renders the staff-facing title and message for an event.
func describe(ev *event.Event) (string, string) {
	number, _ := ev.Data["contract_number"].(string)

	switch ev.Kind {
	case event.KindContractRequestCreated:
		return "New installation request", fmt.Sprintf("Installation request %s is waiting for a survey.", number)
	case event.KindSurveyReportSubmitted:
		return "Survey report submitted", fmt.Sprintf("Survey report for contract %s is ready for review.", number)
	case event.KindSurveyReportApproved:
		return "Survey approved", fmt.Sprintf("Survey for contract %s was approved. Fees are fixed.", number)
	case event.KindCustomerSignedContract:
		return "Contract signed", fmt.Sprintf("Customer signed contract %s.", number)
	case event.KindContractSentToInstallation:
		return "Installation assigned", fmt.Sprintf("Contract %s is scheduled for installation.", number)
	case event.KindInstallationCompleted:
		return "Installation completed", fmt.Sprintf("Contract %s is now active.", number)
	case event.KindContractAnnulled:
		return "Contract annulled", fmt.Sprintf("Contract %s was annulled.", number)
	case event.KindInvoicePaid:
		invoiceNumber, _ := ev.Data["invoice_number"].(string)
		return "Invoice paid", fmt.Sprintf("Invoice %s was settled in full.", invoiceNumber)
	default:
		return string(ev.Kind), fmt.Sprintf("Event %s occurred.", ev.Kind)
	}
}
