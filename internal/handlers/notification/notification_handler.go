// internal/handlers/notification/notification_handler.go
package notification

import (
	"net/http"
	"strconv"

	"aquaflow-service/internal/domain/notification"
	"aquaflow-service/internal/middleware"
	"aquaflow-service/internal/pkg/response"
	service "aquaflow-service/internal/service/notification"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *service.Service
}

func NewNotificationHandler(notificationService *service.Service) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetNotifications retrieves paginated notifications for the current staff
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	staffID := middleware.MustGetStaffID(c)

	var filters notification.NotificationListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.notificationService.List(c.Request.Context(), staffID, &filters)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "notifications retrieved", result)
}

// GetLatestNotifications retrieves the latest N notifications
func (h *NotificationHandler) GetLatestNotifications(c *gin.Context) {
	staffID := middleware.MustGetStaffID(c)

	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 10
	}

	notifications, err := h.notificationService.GetLatest(c.Request.Context(), staffID, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "notifications retrieved", gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// GetUnreadCount returns the unread total for the badge
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	staffID := middleware.MustGetStaffID(c)

	count, err := h.notificationService.GetUnreadCount(c.Request.Context(), staffID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "unread count retrieved", gin.H{"unread_count": count})
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	staffID := middleware.MustGetStaffID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid notification ID", err)
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), id, staffID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "notification marked as read", nil)
}

// MarkAllAsRead marks every notification as read
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	staffID := middleware.MustGetStaffID(c)

	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), staffID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "all notifications marked as read", nil)
}

// Delete removes a notification
func (h *NotificationHandler) Delete(c *gin.Context) {
	staffID := middleware.MustGetStaffID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid notification ID", err)
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), id, staffID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "notification deleted", nil)
}
