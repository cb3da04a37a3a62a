// internal/repository/postgres/notification_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aquaflow-service/internal/domain/notification"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create creates a new notification. When the row carries an event id, a
// unique index on (event_id, recipient_id) absorbs duplicate deliveries of
// the same event: the insert becomes a no-op and created is false.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (recipient_id, event_id, title, message, type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, recipient_id) DO NOTHING
		RETURNING id, created_at
	`

	var metadataJSON []byte
	var err error
	if n.Metadata != nil {
		metadataJSON, err = json.Marshal(n.Metadata)
		if err != nil {
			return false, fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	err = r.db.QueryRow(
		ctx, query,
		n.RecipientID, n.EventID, n.Title, n.Message, n.Type, metadataJSON,
	).Scan(&n.ID, &n.CreatedAt)

	if err == pgx.ErrNoRows {
		// Conflict: this event was already persisted for this recipient.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}
	return true, nil
}

// FindByID retrieves a notification by ID.
func (r *NotificationRepository) FindByID(ctx context.Context, id int64) (*notification.Notification, error) {
	query := `
		SELECT id, recipient_id, event_id, title, message, type, metadata, is_read, created_at, read_at
		FROM notifications
		WHERE id = $1
	`

	var n notification.Notification
	var metadataJSON []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.RecipientID, &n.EventID, &n.Title, &n.Message, &n.Type,
		&metadataJSON, &n.IsRead, &n.CreatedAt, &n.ReadAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("notification: %w", xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &n, nil
}

// GetUserNotifications retrieves notifications for a recipient with filters.
func (r *NotificationRepository) GetUserNotifications(ctx context.Context, recipientID int64, filters *notification.NotificationListFilters) ([]notification.Notification, int64, error) {
	conditions := []string{"recipient_id = $1"}
	args := []interface{}{recipientID}
	argPos := 2

	if filters.IsRead != nil {
		conditions = append(conditions, fmt.Sprintf("is_read = $%d", argPos))
		args = append(args, *filters.IsRead)
		argPos++
	}

	if filters.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, *filters.Type)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM notifications WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT id, recipient_id, event_id, title, message, type, metadata, is_read, created_at, read_at
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)

	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []notification.Notification{}
	for rows.Next() {
		var n notification.Notification
		var metadataJSON []byte

		err := rows.Scan(
			&n.ID, &n.RecipientID, &n.EventID, &n.Title, &n.Message, &n.Type,
			&metadataJSON, &n.IsRead, &n.CreatedAt, &n.ReadAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		notifications = append(notifications, n)
	}

	return notifications, total, nil
}

// GetLatestNotifications retrieves the latest N notifications for a recipient.
func (r *NotificationRepository) GetLatestNotifications(ctx context.Context, recipientID int64, limit int) ([]notification.Notification, error) {
	query := `
		SELECT id, recipient_id, event_id, title, message, type, metadata, is_read, created_at, read_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest notifications: %w", err)
	}
	defer rows.Close()

	notifications := []notification.Notification{}
	for rows.Next() {
		var n notification.Notification
		var metadataJSON []byte

		err := rows.Scan(
			&n.ID, &n.RecipientID, &n.EventID, &n.Title, &n.Message, &n.Type,
			&metadataJSON, &n.IsRead, &n.CreatedAt, &n.ReadAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		notifications = append(notifications, n)
	}

	return notifications, nil
}

// MarkAsRead marks a notification as read.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id int64, recipientID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE id = $2 AND recipient_id = $3 AND is_read = false
	`

	result, err := r.db.Exec(ctx, query, time.Now(), id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found or already read: %w", xerrors.ErrNotFound)
	}

	return nil
}

// MarkAllAsRead marks all notifications as read for a recipient.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, recipientID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE recipient_id = $2 AND is_read = false
	`

	_, err := r.db.Exec(ctx, query, time.Now(), recipientID)
	return err
}

// GetUnreadCount gets the count of unread notifications.
func (r *NotificationRepository) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`

	var count int
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}

// GetSummary gets a notification summary for a recipient.
func (r *NotificationRepository) GetSummary(ctx context.Context, recipientID int64) (*notification.NotificationSummary, error) {
	query := `
		SELECT
			COUNT(*) as total,
			COUNT(CASE WHEN is_read = false THEN 1 END) as unread,
			COUNT(CASE WHEN is_read = true THEN 1 END) as read
		FROM notifications
		WHERE recipient_id = $1
	`

	var summary notification.NotificationSummary
	err := r.db.QueryRow(ctx, query, recipientID).Scan(&summary.Total, &summary.TotalUnread, &summary.TotalRead)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification summary: %w", err)
	}

	return &summary, nil
}

// Delete deletes a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id int64, recipientID int64) error {
	query := `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`

	result, err := r.db.Exec(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification: %w", xerrors.ErrNotFound)
	}

	return nil
}
