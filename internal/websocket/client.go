// internal/websocket/client.go
package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	wstypes "aquaflow-service/internal/domain/websocket"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// ClientAuth is the verified identity a connection was opened with.
type ClientAuth struct {
	StaffID   int64
	SessionID string
	Roles     []string
	Email     string
	Device    string
}

// Client is one staff websocket connection. All writes to the socket go
// through the outbound channel; the two pumps own the connection.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	outbound  chan []byte
	staffID   int64
	sessionID string
	roles     []string
	device    string
	email     string

	subs   map[wstypes.ChannelType]bool
	subsMu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewClient(hub *Hub, conn *websocket.Conn, auth *ClientAuth) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		hub:       hub,
		conn:      conn,
		outbound:  make(chan []byte, 256),
		staffID:   auth.StaffID,
		sessionID: auth.SessionID,
		roles:     auth.Roles,
		device:    auth.Device,
		email:     auth.Email,
		subs:      make(map[wstypes.ChannelType]bool),
		ctx:       ctx,
		cancel:    cancel,
	}

	// Every staff connection listens for its own notifications from the start.
	c.subs[wstypes.ChannelNotifications] = true

	return c
}

func (c *Client) GetStaffID() int64    { return c.staffID }
func (c *Client) GetSessionID() string { return c.sessionID }
func (c *Client) GetRoles() []string   { return c.roles }

func (c *Client) HasRole(role string) bool {
	for _, r := range c.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (c *Client) Subscribe(channel wstypes.ChannelType) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	c.subs[channel] = true
}

func (c *Client) Unsubscribe(channel wstypes.ChannelType) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	delete(c.subs, channel)
}

func (c *Client) IsSubscribed(channel wstypes.ChannelType) bool {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return c.subs[channel]
}

// ReadPump reads frames until the connection dies and unregisters the
// client on the way out. Pong frames extend the read deadline.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error (staff %d): %v", c.staffID, err)
			}
			return
		}

		msg, err := wstypes.ParseMessage(raw)
		if err != nil {
			c.SendError("invalid_message", "Failed to parse message", err.Error())
			continue
		}
		c.dispatch(msg)
	}
}

// WritePump drains the outbound channel and keeps the connection alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case data, ok := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound frame: protocol frames (ping, channel
// subscription) are handled here, everything else goes to the hub's
// handler registry.
func (c *Client) dispatch(msg *wstypes.WSMessage) {
	switch msg.Type {
	case wstypes.EventTypePing:
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))
		return

	case wstypes.EventTypeSubscribe:
		c.changeSubscriptions(msg, true)
		return

	case wstypes.EventTypeUnsubscribe:
		c.changeSubscriptions(msg, false)
		return
	}

	if err := c.hub.HandleClientMessage(context.Background(), c, msg); err != nil {
		c.SendError("handler_error", "Failed to process message", err.Error())
	}
}

func (c *Client) changeSubscriptions(msg *wstypes.WSMessage, subscribe bool) {
	var req wstypes.SubscribeRequest
	if err := mapToStruct(msg.Data, &req); err != nil {
		c.SendError("invalid_request", "Invalid subscription request", err.Error())
		return
	}

	status := "unsubscribed"
	for _, channel := range req.Channels {
		if subscribe {
			c.Subscribe(channel)
		} else {
			c.Unsubscribe(channel)
		}
	}
	if subscribe {
		status = "subscribed"
	}

	c.SendMessage(wstypes.NewMessage(msg.Type, map[string]interface{}{
		"channels": req.Channels,
		"status":   status,
	}))
}

// SendMessage queues a frame for delivery. A client that cannot keep up
// loses its connection rather than blocking the sender.
func (c *Client) SendMessage(msg *wstypes.WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		log.Printf("failed to marshal websocket message: %v", err)
		return
	}

	select {
	case c.outbound <- data:
	case <-c.ctx.Done():
	default:
		close(c.outbound)
		c.hub.unregister <- c
	}
}

func (c *Client) SendError(code, message, details string) {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// Close stops both pumps and releases the outbound channel.
func (c *Client) Close() {
	c.cancel()
	close(c.outbound)
}
