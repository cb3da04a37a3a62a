// internal/websocket/registry.go
package websocket

import wstypes "aquaflow-service/internal/domain/websocket"

// Registry is the push surface the hub exposes to the rest of the service.
// Consumers hold this interface rather than the concrete hub so delivery
// can be faked in tests.
type Registry interface {
	PushNotification(staffID int64, data *wstypes.NotificationData)
	PushUnreadCount(staffID int64, count int)
	BroadcastToRole(role string, msg *wstypes.WSMessage)
	BroadcastSystemAlert(alert *wstypes.SystemAlertData)
	IsConnected(staffID int64) bool
}

var _ Registry = (*Hub)(nil)
