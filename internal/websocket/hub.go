// internal/websocket/hub.go
package websocket

import (
	"context"
	"log"
	"sync"

	wstypes "aquaflow-service/internal/domain/websocket"
	"aquaflow-service/internal/pkg/jwt"
	"aquaflow-service/internal/pkg/session"
)

// Hub tracks every live staff connection and routes outbound messages to
// them. A staff member may hold several connections at once (one per
// device); all of them receive that member's pushes.
type Hub struct {
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client

	broadcast chan *BroadcastMessage

	handlerRegistry *HandlerRegistry

	jwtVerifier    *jwt.Verifier
	sessionManager *session.Manager
}

// BroadcastMessage addresses one outbound frame: a role, a list of staff
// IDs, or neither (everyone on the channel).
type BroadcastMessage struct {
	StaffIDs []int64
	Role     string
	Channel  wstypes.ChannelType
	Message  *wstypes.WSMessage
}

func NewHub(jwtVerifier *jwt.Verifier, sessionManager *session.Manager) *Hub {
	return &Hub{
		clients:         make(map[int64]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		jwtVerifier:     jwtVerifier,
		sessionManager:  sessionManager,
	}
}

// AuthenticateClient verifies an access token before the upgrade: the
// signature, the blacklist and the Redis session all have to check out.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	blacklisted, err := h.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenBlacklisted
	}

	sessionData, err := h.sessionManager.GetSession(ctx, claims.StaffID, claims.ID)
	if err != nil {
		return nil, err
	}

	return &ClientAuth{
		StaffID:   claims.StaffID,
		SessionID: claims.ID,
		Roles:     claims.Roles,
		Email:     sessionData.Email,
		Device:    claims.Device,
	}, nil
}

// RegisterHandler adds a domain message handler. Must be called before Run.
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage dispatches an inbound frame to its registered
// handler. Unknown frame types are ignored; the client already handled the
// protocol-level ones.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return nil
	}
	return handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.staffID] == nil {
		h.clients[client.staffID] = make(map[*Client]bool)
	}
	h.clients[client.staffID][client] = true

	log.Printf("Client connected: staff=%d, session=%s, total=%d",
		client.staffID, client.sessionID, h.totalClients())

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"staff_id":   client.staffID,
		"session_id": client.sessionID,
		"roles":      client.roles,
		"device":     client.device,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.staffID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.staffID)
			}

			log.Printf("Client disconnected: staff=%d, session=%s, total=%d",
				client.staffID, client.sessionID, h.totalClients())
		}
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch {
	case msg.Role != "":
		h.deliverWhere(msg, func(c *Client) bool { return c.HasRole(msg.Role) })

	case msg.StaffIDs == nil:
		h.deliverWhere(msg, func(*Client) bool { return true })

	default:
		for _, staffID := range msg.StaffIDs {
			for client := range h.clients[staffID] {
				if client.IsSubscribed(msg.Channel) {
					client.SendMessage(msg.Message)
				}
			}
		}
	}
}

// deliverWhere must be called with at least a read lock held.
func (h *Hub) deliverWhere(msg *BroadcastMessage, match func(*Client) bool) {
	for _, clients := range h.clients {
		for client := range clients {
			if match(client) && client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}
}

func (h *Hub) GetConnectedClients(staffID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[staffID]; ok {
		return len(clients)
	}
	return 0
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// Registry surface. These queue onto the broadcast channel; delivery
// happens on the hub goroutine.

func (h *Hub) PushNotification(staffID int64, data *wstypes.NotificationData) {
	msg := wstypes.NewMessage(wstypes.EventTypeNotification, data)
	h.broadcast <- &BroadcastMessage{
		StaffIDs: []int64{staffID},
		Channel:  wstypes.ChannelNotifications,
		Message:  msg,
	}
}

func (h *Hub) PushUnreadCount(staffID int64, count int) {
	msg := wstypes.NewMessage(wstypes.EventTypeNotificationCount, map[string]interface{}{
		"unread_count": count,
	})
	h.broadcast <- &BroadcastMessage{
		StaffIDs: []int64{staffID},
		Channel:  wstypes.ChannelNotifications,
		Message:  msg,
	}
}

func (h *Hub) BroadcastToRole(role string, msg *wstypes.WSMessage) {
	h.broadcast <- &BroadcastMessage{
		Role:    role,
		Channel: wstypes.ChannelNotifications,
		Message: msg,
	}
}

func (h *Hub) BroadcastSystemAlert(alert *wstypes.SystemAlertData) {
	msg := wstypes.NewMessage(wstypes.EventTypeSystemAlert, alert)
	h.broadcast <- &BroadcastMessage{
		StaffIDs: nil,
		Channel:  wstypes.ChannelSystem,
		Message:  msg,
	}
}

// IsConnected checks if a staff member has any active connections
func (h *Hub) IsConnected(staffID int64) bool {
	return h.GetConnectedClients(staffID) > 0
}

// DisconnectStaff forcefully disconnects all sessions for a staff member
func (h *Hub) DisconnectStaff(staffID int64, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[staffID]; ok {
		disconnectMsg := wstypes.NewMessage(wstypes.EventTypeDisconnected, map[string]interface{}{
			"reason": reason,
		})

		for client := range clients {
			client.SendMessage(disconnectMsg)
			client.Close()
		}

		delete(h.clients, staffID)
		log.Printf("Disconnected all clients for staff=%d, reason=%s", staffID, reason)
	}
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
}
