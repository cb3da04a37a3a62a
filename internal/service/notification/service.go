// internal/service/notification/service.go
package notification

import (
	"context"
	"fmt"

	"aquaflow-service/internal/domain/notification"
	wstypes "aquaflow-service/internal/domain/websocket"

	"go.uber.org/zap"
)

// Store is the persistence the service and the fan-out listener share.
type Store interface {
	Create(ctx context.Context, n *notification.Notification) (bool, error)
	FindByID(ctx context.Context, id int64) (*notification.Notification, error)
	GetUserNotifications(ctx context.Context, recipientID int64, filters *notification.NotificationListFilters) ([]notification.Notification, int64, error)
	GetLatestNotifications(ctx context.Context, recipientID int64, limit int) ([]notification.Notification, error)
	MarkAsRead(ctx context.Context, id int64, recipientID int64) error
	MarkAllAsRead(ctx context.Context, recipientID int64) error
	GetUnreadCount(ctx context.Context, recipientID int64) (int, error)
	GetSummary(ctx context.Context, recipientID int64) (*notification.NotificationSummary, error)
	Delete(ctx context.Context, id int64, recipientID int64) error
}

// Pusher delivers real-time copies to connected staff. Connection state is
// best effort: a disconnected recipient still has the durable row.
type Pusher interface {
	PushNotification(staffID int64, data *wstypes.NotificationData)
	PushUnreadCount(staffID int64, count int)
	IsConnected(staffID int64) bool
}

// Service handles staff-facing notification reads and the real-time push.
type Service struct {
	store  Store
	pusher Pusher
	logger *zap.Logger
}

func NewService(store Store, pusher Pusher, logger *zap.Logger) *Service {
	return &Service{store: store, pusher: pusher, logger: logger}
}

// List returns a page of the recipient's notifications with a summary.
func (s *Service) List(ctx context.Context, recipientID int64, filters *notification.NotificationListFilters) (*notification.NotificationListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	notifications, total, err := s.store.GetUserNotifications(ctx, recipientID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	summary, err := s.store.GetSummary(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	totalPages := int((total + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	return &notification.NotificationListResponse{
		Notifications: notifications,
		Summary:       *summary,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    totalPages,
	}, nil
}

// GetLatest returns the most recent notifications for the recipient.
func (s *Service) GetLatest(ctx context.Context, recipientID int64, limit int) ([]notification.Notification, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return s.store.GetLatestNotifications(ctx, recipientID, limit)
}

// MarkAsRead marks one notification read and pushes the fresh unread count.
func (s *Service) MarkAsRead(ctx context.Context, id, recipientID int64) error {
	if err := s.store.MarkAsRead(ctx, id, recipientID); err != nil {
		return err
	}
	s.pushUnreadCount(ctx, recipientID)
	return nil
}

// MarkAllAsRead marks everything read for the recipient.
func (s *Service) MarkAllAsRead(ctx context.Context, recipientID int64) error {
	if err := s.store.MarkAllAsRead(ctx, recipientID); err != nil {
		return err
	}
	if s.pusher.IsConnected(recipientID) {
		s.pusher.PushUnreadCount(recipientID, 0)
	}
	return nil
}

// GetUnreadCount returns the recipient's unread total.
func (s *Service) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	return s.store.GetUnreadCount(ctx, recipientID)
}

// Delete removes one of the recipient's notifications.
func (s *Service) Delete(ctx context.Context, id, recipientID int64) error {
	return s.store.Delete(ctx, id, recipientID)
}

func (s *Service) pushUnreadCount(ctx context.Context, recipientID int64) {
	if !s.pusher.IsConnected(recipientID) {
		return
	}
	count, err := s.store.GetUnreadCount(ctx, recipientID)
	if err != nil {
		s.logger.Warn("failed to refresh unread count", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return
	}
	s.pusher.PushUnreadCount(recipientID, count)
}
