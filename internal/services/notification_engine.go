package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"smartharvester/internal/models"

	"github.com/google/uuid"
)

const (
	// reminderScanLimit bounds how many recent notifications the dedupe
	// check inspects.
	reminderScanLimit = 200

	// markAllScanLimit bounds a MarkAllRead pass.
	markAllScanLimit = 1000
)

// NotificationEngine emits, lists and updates in-app notifications over
// two tiers: the durable store first, with a silent fallback to the
// session cache so the user still sees the notification for the rest of
// their session. The fallback is observable to operators via logs.
type NotificationEngine struct {
	store   NotificationStore
	cache   EphemeralCache
	timeout time.Duration

	now   func() time.Time
	newID func() string
}

// EmitInput describes one notification to emit.
type EmitInput struct {
	UserID     string
	Type       models.NotificationType
	Title      string
	Message    string
	PlantingID string
	Metadata   models.Metadata
}

// EmitResult reports either the id of the written notification or that
// emission was skipped as a duplicate reminder. A skip is an outcome,
// not an error.
type EmitResult struct {
	NotificationID string
	Skipped        bool
}

func NewNotificationEngine(store NotificationStore, cache EphemeralCache, timeout time.Duration) *NotificationEngine {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NotificationEngine{
		store:   store,
		cache:   cache,
		timeout: timeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Emit writes one notification. Reminder types are deduplicated on
// (user_id, type, crop_name, due_date, task): a match makes the call a
// no-op. Action types are written unconditionally, once per user action.
func (e *NotificationEngine) Emit(ctx context.Context, in EmitInput) (EmitResult, error) {
	n := models.Notification{
		NotificationID: e.newID(),
		UserID:         in.UserID,
		Type:           in.Type,
		Title:          in.Title,
		Message:        in.Message,
		CreatedAt:      e.now().Unix(),
		PlantingID:     in.PlantingID,
		Metadata:       in.Metadata,
	}

	if in.Type.IsReminder() {
		existing, err := e.List(ctx, in.UserID, reminderScanLimit, false)
		if err != nil {
			slog.Warn("reminder dedupe check failed, emitting anyway", "user_id", in.UserID, "error", err)
		}
		for _, prior := range existing {
			if prior.Type == n.Type && prior.ReminderKey() == n.ReminderKey() {
				slog.Debug("duplicate reminder suppressed",
					"user_id", in.UserID, "type", in.Type, "crop_name", in.Metadata["crop_name"])
				return EmitResult{Skipped: true}, nil
			}
		}
	}

	storeCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.store.Save(storeCtx, &n); err != nil {
		slog.Warn("durable notification write failed, falling back to session cache",
			"notification_id", n.NotificationID, "user_id", in.UserID, "error", err)
		if cacheErr := e.cache.AppendNotification(ctx, n); cacheErr != nil {
			return EmitResult{}, fmt.Errorf("notification write failed on both tiers: %w (cache: %w)", err, cacheErr)
		}
	}

	return EmitResult{NotificationID: n.NotificationID}, nil
}

// List returns the user's notifications newest first. The durable tier
// is preferred; cache entries that never landed durably are merged in
// and duplicates are dropped by notification_id.
func (e *NotificationEngine) List(ctx context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	storeCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	durable, err := e.store.ListByUser(storeCtx, userID, limit, unreadOnly)
	if err != nil {
		slog.Warn("durable notification read failed, serving session cache",
			"user_id", userID, "error", err)
		return e.cache.ListNotifications(ctx, userID, limit, unreadOnly)
	}

	merged := durable
	seen := make(map[string]struct{}, len(durable))
	for _, n := range durable {
		seen[n.NotificationID] = struct{}{}
	}

	cached, cacheErr := e.cache.ListNotifications(ctx, userID, 0, unreadOnly)
	if cacheErr != nil {
		slog.Warn("session notification read failed during list", "user_id", userID, "error", cacheErr)
	} else {
		for _, n := range cached {
			if _, dup := seen[n.NotificationID]; dup {
				continue
			}
			seen[n.NotificationID] = struct{}{}
			merged = append(merged, n)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].CreatedAt > merged[j].CreatedAt })
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// MarkRead flips the read flag, durable tier first and session cache as
// the fallback. Best effort.
func (e *NotificationEngine) MarkRead(ctx context.Context, userID, notificationID string) error {
	storeCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err := e.store.MarkRead(storeCtx, notificationID)
	if err == nil {
		return nil
	}

	found, cacheErr := e.cache.MarkNotificationRead(ctx, userID, notificationID)
	if cacheErr == nil && found {
		return nil
	}
	return fmt.Errorf("failed to mark notification %s read: %w", notificationID, err)
}

// MarkAllRead attempts MarkRead over every currently-unread notification
// for the user and reports how many updates succeeded. The operation
// counts as successful when at least one update landed.
func (e *NotificationEngine) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := e.List(ctx, userID, markAllScanLimit, true)
	if err != nil {
		return 0, fmt.Errorf("failed to list unread notifications: %w", err)
	}

	marked := 0
	for _, n := range unread {
		if err := e.MarkRead(ctx, userID, n.NotificationID); err != nil {
			slog.Warn("mark-read failed during mark-all", "notification_id", n.NotificationID, "error", err)
			continue
		}
		marked++
	}
	slog.Info("marked notifications read", "user_id", userID, "marked", marked, "unread", len(unread))
	return marked, nil
}
