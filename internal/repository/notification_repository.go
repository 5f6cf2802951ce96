package repository

import (
	"context"
	"fmt"
	"sort"

	"smartharvester/internal/models"

	"github.com/jmoiron/sqlx"
)

// NotificationRepository is the durable tier for in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Save(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (
			notification_id, user_id, notification_type, title, message,
			created_at, is_read, planting_id, metadata
		) VALUES (
			:notification_id, :user_id, :notification_type, :title, :message,
			:created_at, :is_read, :planting_id, :metadata
		)`

	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ListByUser returns the user's notifications newest first, resolving
// through the index-then-scan strategy list.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	strategies := []queryStrategy[models.Notification]{
		{name: "user_id-index", run: func(ctx context.Context) ([]models.Notification, error) {
			return r.queryByIndex(ctx, userID, limit, unreadOnly)
		}},
		{name: "scan-filter-user_id", run: func(ctx context.Context) ([]models.Notification, error) {
			return r.scanWithFilter(ctx, userID, limit, unreadOnly)
		}},
	}
	return runStrategies(ctx, "notifications", strategies)
}

func (r *NotificationRepository) queryByIndex(ctx context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := `SELECT * FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrIndexUnavailable, err)
	}
	return notifications, nil
}

func (r *NotificationRepository) scanWithFilter(ctx context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	cursor := ""
	for {
		var page []models.Notification
		query := `SELECT * FROM notifications WHERE notification_id > $1 ORDER BY notification_id LIMIT $2`
		if err := r.db.SelectContext(ctx, &page, query, cursor, scanPageSize); err != nil {
			return nil, fmt.Errorf("notification scan failed: %w", err)
		}
		for _, n := range page {
			if n.UserID != userID {
				continue
			}
			if unreadOnly && n.Read {
				continue
			}
			out = append(out, n)
		}
		if len(page) < scanPageSize {
			break
		}
		cursor = page[len(page)-1].NotificationID
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE notification_id = $1`, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: notification %s", models.ErrNotFound, notificationID)
	}
	return nil
}
