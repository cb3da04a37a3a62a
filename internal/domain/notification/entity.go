// internal/domain/notification/entity.go
package notification

import (
	"database/sql"
	"time"
)

type NotificationType string

const (
	TypeContract NotificationType = "contract"
	TypeBilling  NotificationType = "billing"
	TypeSystem   NotificationType = "system"
)

// Notification is the durable per-recipient copy of a lifecycle event.
// EventID carries the producing event's idempotency key; the unique index
// on (event_id, recipient_id) makes redelivery a no-op.
type Notification struct {
	ID          int64                  `json:"id" db:"id"`
	RecipientID int64                  `json:"recipient_id" db:"recipient_id"`
	EventID     sql.NullString         `json:"event_id,omitempty" db:"event_id"`
	Title       string                 `json:"title" db:"title"`
	Message     string                 `json:"message" db:"message"`
	Type        NotificationType       `json:"type" db:"type"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	IsRead      bool                   `json:"is_read" db:"is_read"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
	ReadAt      sql.NullTime           `json:"read_at,omitempty" db:"read_at"`
}

// DTOs

type NotificationListFilters struct {
	IsRead   *bool             `form:"is_read"`
	Type     *NotificationType `form:"type"`
	Page     int               `form:"page"`
	PageSize int               `form:"page_size"`
}

type NotificationSummary struct {
	TotalUnread int `json:"total_unread"`
	TotalRead   int `json:"total_read"`
	Total       int `json:"total"`
}

type NotificationListResponse struct {
	Notifications []Notification      `json:"notifications"`
	Summary       NotificationSummary `json:"summary"`
	Total         int64               `json:"total"`
	Page          int                 `json:"page"`
	PageSize      int                 `json:"page_size"`
	TotalPages    int                 `json:"total_pages"`
}
