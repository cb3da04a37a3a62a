// internal/handlers/websocket/websocket_handler.go
package websocket

import (
	"net/http"
	"strings"
	"time"

	wstypes "aquaflow-service/internal/domain/websocket"
	"aquaflow-service/internal/pkg/response"
	ws "aquaflow-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the staff frontend domain is fixed
		return true
	},
}

type WebSocketHandler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection handles WebSocket connection with authentication
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := h.extractToken(c)
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "missing authentication token", nil)
		return
	}

	auth, err := h.hub.AuthenticateClient(c.Request.Context(), token)
	if err != nil {
		h.logger.Error("WebSocket authentication failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		response.Error(c, http.StatusUnauthorized, "authentication failed", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, auth)
	h.hub.Register <- client

	h.logger.Info("WebSocket client connected",
		zap.Int64("staff_id", auth.StaffID),
		zap.String("session_id", auth.SessionID),
		zap.Strings("roles", auth.Roles),
	)

	go client.WritePump()
	go client.ReadPump()
}

// extractToken extracts token from query param or Authorization header
func (h *WebSocketHandler) extractToken(c *gin.Context) string {
	// Query parameter first, browsers cannot set headers on the handshake
	token := c.Query("token")
	if token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return ""
}

// BroadcastAlert pushes a system alert to connected staff (admin only).
// With a role set it targets that role's members, otherwise everyone
// subscribed to the system channel.
func (h *WebSocketHandler) BroadcastAlert(c *gin.Context) {
	var req struct {
		Severity string `json:"severity" binding:"required,oneof=info warning critical"`
		Title    string `json:"title" binding:"required,max=200"`
		Message  string `json:"message" binding:"required,max=1000"`
		Role     string `json:"role,omitempty" binding:"omitempty,oneof=service_staff technical_staff cashier admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	alert := &wstypes.SystemAlertData{
		Severity: req.Severity,
		Title:    req.Title,
		Message:  req.Message,
	}
	if req.Role != "" {
		h.hub.BroadcastToRole(req.Role, wstypes.NewMessage(wstypes.EventTypeSystemAlert, alert))
	} else {
		h.hub.BroadcastSystemAlert(alert)
	}

	h.logger.Info("system alert queued",
		zap.String("severity", req.Severity),
		zap.String("role", req.Role),
	)
	response.Success(c, http.StatusAccepted, "alert queued", nil)
}

// GetStats returns WebSocket connection statistics (admin only)
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now(),
	}

	response.Success(c, http.StatusOK, "WebSocket stats", stats)
}
