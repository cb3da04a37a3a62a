package notification

import (
	"context"
	"testing"

	"aquaflow-service/internal/domain/notification"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedNotifications(store *fakeStore, recipientID int64, count int) {
	for i := 0; i < count; i++ {
		store.nextID++
		store.rows = append(store.rows, notification.Notification{
			ID:          store.nextID,
			RecipientID: recipientID,
			Title:       "t",
			Message:     "m",
			Type:        notification.TypeContract,
		})
	}
}

func TestList_IncludesSummary(t *testing.T) {
	store := newFakeStore()
	seedNotifications(store, 10, 3)
	require.NoError(t, store.MarkAsRead(context.Background(), 1, 10))

	svc := NewService(store, newFakePusher(), zap.NewNop())
	res, err := svc.List(context.Background(), 10, &notification.NotificationListFilters{})
	require.NoError(t, err)

	assert.Len(t, res.Notifications, 3)
	assert.Equal(t, 2, res.Summary.TotalUnread)
	assert.Equal(t, 1, res.Summary.TotalRead)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.PageSize)
}

func TestMarkAsRead_PushesFreshCount(t *testing.T) {
	store := newFakeStore()
	seedNotifications(store, 10, 2)
	pusher := newFakePusher(10)

	svc := NewService(store, pusher, zap.NewNop())
	require.NoError(t, svc.MarkAsRead(context.Background(), 1, 10))

	require.Len(t, pusher.counts[10], 1)
	assert.Equal(t, 1, pusher.counts[10][0])
}

func TestMarkAsRead_WrongRecipient(t *testing.T) {
	store := newFakeStore()
	seedNotifications(store, 10, 1)

	svc := NewService(store, newFakePusher(), zap.NewNop())
	err := svc.MarkAsRead(context.Background(), 1, 99)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestMarkAllAsRead_PushesZero(t *testing.T) {
	store := newFakeStore()
	seedNotifications(store, 10, 4)
	pusher := newFakePusher(10)

	svc := NewService(store, pusher, zap.NewNop())
	require.NoError(t, svc.MarkAllAsRead(context.Background(), 10))

	count, err := svc.GetUnreadCount(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, count)
	require.Len(t, pusher.counts[10], 1)
	assert.Zero(t, pusher.counts[10][0])
}

func TestDelete_OnlyOwnRows(t *testing.T) {
	store := newFakeStore()
	seedNotifications(store, 10, 1)

	svc := NewService(store, newFakePusher(), zap.NewNop())
	assert.ErrorIs(t, svc.Delete(context.Background(), 1, 99), xerrors.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), 1, 10))
	assert.Empty(t, store.rows)
}
