// internal/websocket/handler.go
package websocket

import (
	"context"

	wstypes "aquaflow-service/internal/domain/websocket"
)

// MessageHandler processes inbound frames for one domain area.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error

	// SupportedEvents lists the frame types routed to this handler.
	SupportedEvents() []wstypes.EventType
}

// HandlerRegistry maps frame types to their handlers.
type HandlerRegistry struct {
	handlers map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[wstypes.EventType]MessageHandler),
	}
}

// Register claims every frame type the handler supports. Later
// registrations win on overlap.
func (r *HandlerRegistry) Register(handler MessageHandler) {
	for _, eventType := range handler.SupportedEvents() {
		r.handlers[eventType] = handler
	}
}

func (r *HandlerRegistry) GetHandler(eventType wstypes.EventType) (MessageHandler, bool) {
	handler, exists := r.handlers[eventType]
	return handler, exists
}
