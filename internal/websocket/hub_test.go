package websocket

import (
	"encoding/json"
	"testing"

	wstypes "aquaflow-service/internal/domain/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConnectedClient(hub *Hub, staffID int64, roles ...string) *Client {
	c := NewClient(hub, nil, &ClientAuth{
		StaffID:   staffID,
		SessionID: "test-session",
		Roles:     roles,
	})
	hub.registerClient(c)
	drainOutbound(c) // discard the connected frame
	return c
}

func drainOutbound(c *Client) []*wstypes.WSMessage {
	var out []*wstypes.WSMessage
	for {
		select {
		case data := <-c.outbound:
			var msg wstypes.WSMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				out = append(out, &msg)
			}
		default:
			return out
		}
	}
}

// deliverQueued runs one queued broadcast synchronously, standing in for
// the hub goroutine.
func deliverQueued(t *testing.T, hub *Hub) {
	t.Helper()
	select {
	case msg := <-hub.broadcast:
		hub.BroadcastMessage(msg)
	default:
		t.Fatal("no broadcast queued")
	}
}

func TestBroadcastToRole_OnlyRoleMembersReceive(t *testing.T) {
	hub := NewHub(nil, nil)
	svcStaff := newConnectedClient(hub, 1, "service_staff")
	tech := newConnectedClient(hub, 2, "technical_staff")

	hub.BroadcastToRole("service_staff", wstypes.NewMessage(wstypes.EventTypeSystemAlert, map[string]interface{}{
		"title": "queue backlog",
	}))
	deliverQueued(t, hub)

	got := drainOutbound(svcStaff)
	require.Len(t, got, 1)
	assert.Equal(t, wstypes.EventTypeSystemAlert, got[0].Type)

	assert.Empty(t, drainOutbound(tech))
}

func TestBroadcastSystemAlert_NeedsSystemSubscription(t *testing.T) {
	hub := NewHub(nil, nil)
	subscribed := newConnectedClient(hub, 1, "service_staff")
	subscribed.Subscribe(wstypes.ChannelSystem)
	unsubscribed := newConnectedClient(hub, 2, "cashier")

	hub.BroadcastSystemAlert(&wstypes.SystemAlertData{
		Severity: "warning",
		Title:    "maintenance window",
		Message:  "service restarts at midnight",
	})
	deliverQueued(t, hub)

	got := drainOutbound(subscribed)
	require.Len(t, got, 1)
	assert.Equal(t, wstypes.EventTypeSystemAlert, got[0].Type)

	assert.Empty(t, drainOutbound(unsubscribed))
}

func TestPushNotification_TargetsSingleStaff(t *testing.T) {
	hub := NewHub(nil, nil)
	target := newConnectedClient(hub, 1, "service_staff")
	other := newConnectedClient(hub, 2, "service_staff")

	hub.PushNotification(1, &wstypes.NotificationData{ID: 9, Title: "survey approved"})
	deliverQueued(t, hub)

	got := drainOutbound(target)
	require.Len(t, got, 1)
	assert.Equal(t, wstypes.EventTypeNotification, got[0].Type)

	assert.Empty(t, drainOutbound(other))
}
