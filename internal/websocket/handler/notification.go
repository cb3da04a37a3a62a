// internal/websocket/handler/notification.go
package handler

import (
	"context"
	"encoding/json"
	"fmt"

	wstypes "aquaflow-service/internal/domain/websocket"
	"aquaflow-service/internal/repository/postgres"
	ws "aquaflow-service/internal/websocket"

	"go.uber.org/zap"
)

// NotificationHandler answers notification frames sent over an open staff
// connection, so the client can acknowledge reads without a REST round trip.
type NotificationHandler struct {
	notifications *postgres.NotificationRepository
	logger        *zap.Logger
}

func NewNotificationHandler(notifications *postgres.NotificationRepository, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

func (h *NotificationHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeNotificationRead,
		wstypes.EventTypeNotificationReadAll,
		wstypes.EventTypeNotificationCount,
	}
}

func (h *NotificationHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeNotificationRead:
		return h.markAsRead(ctx, client, msg)
	case wstypes.EventTypeNotificationReadAll:
		return h.markAllAsRead(ctx, client)
	case wstypes.EventTypeNotificationCount:
		return h.sendCount(ctx, client)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

func (h *NotificationHandler) markAsRead(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req struct {
		NotificationID int64 `json:"notification_id"`
	}
	if err := decodeData(msg.Data, &req); err != nil {
		client.SendError("invalid_request", "Invalid mark as read request", err.Error())
		return err
	}

	staffID := client.GetStaffID()
	if err := h.notifications.MarkAsRead(ctx, req.NotificationID, staffID); err != nil {
		client.SendError("mark_read_failed", "Failed to mark notification as read", err.Error())
		return err
	}

	count, err := h.notifications.GetUnreadCount(ctx, staffID)
	if err != nil {
		h.logger.Warn("unread count after mark-as-read",
			zap.Int64("staff_id", staffID), zap.Error(err))
		count = 0
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeNotificationRead, map[string]interface{}{
		"notification_id": req.NotificationID,
		"success":         true,
		"unread_count":    count,
	}))
	return nil
}

func (h *NotificationHandler) markAllAsRead(ctx context.Context, client *ws.Client) error {
	if err := h.notifications.MarkAllAsRead(ctx, client.GetStaffID()); err != nil {
		client.SendError("mark_all_read_failed", "Failed to mark all as read", err.Error())
		return err
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeNotificationReadAll, map[string]interface{}{
		"success":      true,
		"unread_count": 0,
	}))
	return nil
}

func (h *NotificationHandler) sendCount(ctx context.Context, client *ws.Client) error {
	count, err := h.notifications.GetUnreadCount(ctx, client.GetStaffID())
	if err != nil {
		client.SendError("count_failed", "Failed to get unread count", err.Error())
		return err
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeNotificationCount, map[string]interface{}{
		"unread_count": count,
	}))
	return nil
}

// decodeData round-trips the loosely typed Data field into a concrete
// request struct.
func decodeData(data interface{}, target interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
