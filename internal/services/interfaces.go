package services

import (
	"context"

	"smartharvester/internal/models"
)

// Collaborator interfaces are declared on the consumer side; the
// concrete implementations live in repository, cache and event and are
// selected once at startup by the composition root.

// PlantingStore is the durable, authoritative planting storage.
type PlantingStore interface {
	Save(ctx context.Context, p *models.Planting) error
	Get(ctx context.Context, plantingID string) (*models.Planting, error)
	Delete(ctx context.Context, plantingID string) error
	ListByUser(ctx context.Context, userID, username string) ([]models.Planting, error)
}

// UserStore is the durable account storage.
type UserStore interface {
	Save(ctx context.Context, u *models.User) error
	Get(ctx context.Context, usernameOrUserID string) (*models.User, error)
	ScanAll(ctx context.Context) ([]models.User, error)
	UpdateNotificationPreference(ctx context.Context, usernameOrUserID string, enabled bool) error
	GetNotificationPreference(ctx context.Context, usernameOrUserID string) bool
}

// NotificationStore is the durable notification tier.
type NotificationStore interface {
	Save(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
}

// EphemeralCache is the session-scoped fallback tier for plantings and
// notifications.
type EphemeralCache interface {
	AppendPlanting(ctx context.Context, p models.Planting) error
	ListPlantings(ctx context.Context, userID, username string) ([]models.Planting, error)
	RemovePlanting(ctx context.Context, userID, username, plantingID string) error
	AppendNotification(ctx context.Context, n models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error)
}

// Publisher is the external pub/sub collaborator used by the digest job.
type Publisher interface {
	Publish(ctx context.Context, subject, message string) (string, error)
}
