// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType names the frame types exchanged over a staff connection.
type EventType string

const (
	// Connection lifecycle
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Client to server
	EventTypeNotificationRead    EventType = "notification:read"
	EventTypeNotificationReadAll EventType = "notification:read_all"
	EventTypeSubscribe           EventType = "subscribe"
	EventTypeUnsubscribe         EventType = "unsubscribe"

	// Server to client
	EventTypeNotification      EventType = "notification"
	EventTypeNotificationCount EventType = "notification:count"
	EventTypeSystemAlert       EventType = "system:alert"
)

// WSMessage is the single frame shape used in both directions. Data is
// decoded lazily by the handler that owns the frame type.
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

// ChannelType names a topic a client can subscribe to.
type ChannelType string

const (
	ChannelNotifications ChannelType = "notifications"
	ChannelSystem        ChannelType = "system"
)

// SubscribeRequest is the payload of both subscribe and unsubscribe frames.
type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ErrorData is the payload of error frames.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NotificationData is the payload pushed for a stored notification.
type NotificationData struct {
	ID        int64                  `json:"id"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type"`
	IsRead    bool                   `json:"is_read"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// SystemAlertData is the payload of system:alert frames. Severity is one
// of info, warning or critical.
type SystemAlertData struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// NewMessage builds a timestamped frame with a fresh tracking id.
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

// ParseMessage decodes an incoming client frame.
func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
