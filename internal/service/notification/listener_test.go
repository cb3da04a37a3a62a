package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"aquaflow-service/internal/domain/notification"
	wstypes "aquaflow-service/internal/domain/websocket"
	"aquaflow-service/internal/event"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	rows    []notification.Notification
	seen    map[string]bool // event_id:recipient_id
	failFor map[int64]error
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]bool), failFor: make(map[int64]error)}
}

func dedupKey(eventID string, recipientID int64) string {
	return fmt.Sprintf("%s:%d", eventID, recipientID)
}

func (s *fakeStore) Create(ctx context.Context, n *notification.Notification) (bool, error) {
	if err := s.failFor[n.RecipientID]; err != nil {
		return false, err
	}
	key := dedupKey(n.EventID.String, n.RecipientID)
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	s.nextID++
	n.ID = s.nextID
	s.rows = append(s.rows, *n)
	return true, nil
}

func (s *fakeStore) FindByID(ctx context.Context, id int64) (*notification.Notification, error) {
	for _, n := range s.rows {
		if n.ID == id {
			out := n
			return &out, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (s *fakeStore) GetUserNotifications(ctx context.Context, recipientID int64, filters *notification.NotificationListFilters) ([]notification.Notification, int64, error) {
	var out []notification.Notification
	for _, n := range s.rows {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) GetLatestNotifications(ctx context.Context, recipientID int64, limit int) ([]notification.Notification, error) {
	out, _, _ := s.GetUserNotifications(ctx, recipientID, nil)
	return out, nil
}

func (s *fakeStore) MarkAsRead(ctx context.Context, id int64, recipientID int64) error {
	for i, n := range s.rows {
		if n.ID == id && n.RecipientID == recipientID {
			s.rows[i].IsRead = true
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (s *fakeStore) MarkAllAsRead(ctx context.Context, recipientID int64) error {
	for i, n := range s.rows {
		if n.RecipientID == recipientID {
			s.rows[i].IsRead = true
		}
	}
	return nil
}

func (s *fakeStore) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	count := 0
	for _, n := range s.rows {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) GetSummary(ctx context.Context, recipientID int64) (*notification.NotificationSummary, error) {
	unread, _ := s.GetUnreadCount(ctx, recipientID)
	all, _, _ := s.GetUserNotifications(ctx, recipientID, nil)
	return &notification.NotificationSummary{
		TotalUnread: unread,
		TotalRead:   len(all) - unread,
		Total:       len(all),
	}, nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64, recipientID int64) error {
	for i, n := range s.rows {
		if n.ID == id && n.RecipientID == recipientID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (s *fakeStore) forRecipient(recipientID int64) []notification.Notification {
	out, _, _ := s.GetUserNotifications(context.Background(), recipientID, nil)
	return out
}

type fakePusher struct {
	connected map[int64]bool
	pushed    map[int64][]*wstypes.NotificationData
	counts    map[int64][]int
}

func newFakePusher(connected ...int64) *fakePusher {
	p := &fakePusher{
		connected: make(map[int64]bool),
		pushed:    make(map[int64][]*wstypes.NotificationData),
		counts:    make(map[int64][]int),
	}
	for _, id := range connected {
		p.connected[id] = true
	}
	return p
}

func (p *fakePusher) PushNotification(staffID int64, data *wstypes.NotificationData) {
	p.pushed[staffID] = append(p.pushed[staffID], data)
}

func (p *fakePusher) PushUnreadCount(staffID int64, count int) {
	p.counts[staffID] = append(p.counts[staffID], count)
}

func (p *fakePusher) IsConnected(staffID int64) bool { return p.connected[staffID] }

type fakeDirectory map[string][]int64

func (d fakeDirectory) FindIDsByRole(ctx context.Context, role string) ([]int64, error) {
	return d[role], nil
}

func directEvent(recipientID int64) *event.Event {
	return event.New(event.KindSurveyReportApproved, 3, 1, &recipientID, "service_staff", map[string]interface{}{
		"contract_number": "CT-42",
	})
}

func TestHandle_DirectRecipient(t *testing.T) {
	store := newFakeStore()
	pusher := newFakePusher(10)
	l := NewListener(store, fakeDirectory{}, pusher, zap.NewNop())

	err := l.Handle(context.Background(), directEvent(10))
	require.NoError(t, err)

	rows := store.forRecipient(10)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Message, "CT-42")
	assert.Equal(t, notification.TypeContract, rows[0].Type)

	require.Len(t, pusher.pushed[10], 1)
	require.Len(t, pusher.counts[10], 1)
	assert.Equal(t, 1, pusher.counts[10][0])
}

func TestHandle_RoleFanOut(t *testing.T) {
	store := newFakeStore()
	pusher := newFakePusher(2, 3)
	dir := fakeDirectory{"service_staff": {2, 3, 4}}
	l := NewListener(store, dir, pusher, zap.NewNop())

	ev := event.New(event.KindContractRequestCreated, 5, 1, nil, "service_staff", map[string]interface{}{
		"contract_number": "CT-77",
	})
	err := l.Handle(context.Background(), ev)
	require.NoError(t, err)

	assert.Len(t, store.rows, 3)
	for _, id := range []int64{2, 3, 4} {
		assert.Len(t, store.forRecipient(id), 1)
	}

	// Only connected members get the live push; 4 keeps the durable row.
	assert.Len(t, pusher.pushed[2], 1)
	assert.Len(t, pusher.pushed[3], 1)
	assert.Empty(t, pusher.pushed[4])
}

func TestHandle_RedeliveryIsNoOp(t *testing.T) {
	store := newFakeStore()
	pusher := newFakePusher(10)
	l := NewListener(store, fakeDirectory{}, pusher, zap.NewNop())
	ev := directEvent(10)

	require.NoError(t, l.Handle(context.Background(), ev))
	require.NoError(t, l.Handle(context.Background(), ev))

	assert.Len(t, store.forRecipient(10), 1)
	assert.Len(t, pusher.pushed[10], 1)
}

func TestHandle_PartialFailureReported(t *testing.T) {
	store := newFakeStore()
	store.failFor[3] = errors.New("insert failed")
	pusher := newFakePusher()
	dir := fakeDirectory{"service_staff": {2, 3}}
	l := NewListener(store, dir, pusher, zap.NewNop())

	ev := event.New(event.KindContractRequestCreated, 5, 1, nil, "service_staff", nil)
	err := l.Handle(context.Background(), ev)
	require.Error(t, err)

	// The healthy recipient was still delivered; the retry will be absorbed
	// by dedup for them and only fill in the failed one.
	assert.Len(t, store.forRecipient(2), 1)
	assert.Empty(t, store.forRecipient(3))

	store.failFor = map[int64]error{}
	require.NoError(t, l.Handle(context.Background(), ev))
	assert.Len(t, store.forRecipient(2), 1)
	assert.Len(t, store.forRecipient(3), 1)
}

func TestHandle_NoRecipients(t *testing.T) {
	store := newFakeStore()
	l := NewListener(store, fakeDirectory{}, newFakePusher(), zap.NewNop())

	ev := event.New(event.KindContractAnnulled, 5, 1, nil, "service_staff", nil)
	err := l.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Empty(t, store.rows)
}

func TestHandle_BillingEventType(t *testing.T) {
	store := newFakeStore()
	dir := fakeDirectory{"service_staff": {2}}
	l := NewListener(store, dir, newFakePusher(), zap.NewNop())

	ev := event.New(event.KindInvoicePaid, 7, 9, nil, "service_staff", map[string]interface{}{
		"invoice_number": "INV-9",
	})
	require.NoError(t, l.Handle(context.Background(), ev))

	rows := store.forRecipient(2)
	require.Len(t, rows, 1)
	assert.Equal(t, notification.TypeBilling, rows[0].Type)
	assert.Contains(t, rows[0].Message, "INV-9")
}
