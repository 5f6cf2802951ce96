package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"smartharvester/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	plantingKeyPrefix     = "session:plantings:"
	notificationKeyPrefix = "session:notifications:"

	// MaxEntriesPerUser bounds each per-user list; entries beyond it are
	// evicted oldest-first.
	MaxEntriesPerUser = 100

	sessionTTL = 24 * time.Hour
)

// SessionCache is the ephemeral tier: a per-session key/value scope in
// Redis holding records written recently that may not have reached the
// durable store yet. It is never authoritative except when the durable
// store is down.
type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

// scope picks the cache key owner: user_id when present, else username.
func scope(userID, username string) string {
	if userID != "" {
		return userID
	}
	return username
}

// AppendPlanting prepends a planting to the owner's session list and
// trims it to the bounded length.
func (c *SessionCache) AppendPlanting(ctx context.Context, p models.Planting) error {
	key := plantingKeyPrefix + scope(p.UserID, p.Username)
	return c.push(ctx, key, p)
}

// ListPlantings returns the session plantings scoped by user_id or
// username, whichever is present, filtered to the requesting user to
// avoid cross-user leakage.
func (c *SessionCache) ListPlantings(ctx context.Context, userID, username string) ([]models.Planting, error) {
	key := plantingKeyPrefix + scope(userID, username)
	raw, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session plantings: %w", err)
	}

	out := make([]models.Planting, 0, len(raw))
	for _, entry := range raw {
		var p models.Planting
		if err := json.Unmarshal([]byte(entry), &p); err != nil {
			slog.Warn("skipping undecodable session planting", "error", err)
			continue
		}
		if (userID != "" && p.UserID == userID) || (username != "" && p.Username == username) {
			out = append(out, p)
		}
	}
	return out, nil
}

// RemovePlanting drops a planting from the owner's session list. Used on
// delete and after a successful migration to the durable store.
func (c *SessionCache) RemovePlanting(ctx context.Context, userID, username, plantingID string) error {
	key := plantingKeyPrefix + scope(userID, username)
	raw, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read session plantings: %w", err)
	}

	kept := make([]any, 0, len(raw))
	for _, entry := range raw {
		var p models.Planting
		if err := json.Unmarshal([]byte(entry), &p); err == nil && p.PlantingID == plantingID {
			continue
		}
		kept = append(kept, entry)
	}
	return c.rewrite(ctx, key, kept)
}

// AppendNotification prepends a notification to the user's session list.
// This is the fallback tier for Emit so the user still sees the
// notification for the remainder of their session.
func (c *SessionCache) AppendNotification(ctx context.Context, n models.Notification) error {
	key := notificationKeyPrefix + n.UserID
	return c.push(ctx, key, n)
}

// ListNotifications returns session notifications newest first.
func (c *SessionCache) ListNotifications(ctx context.Context, userID string, limit int, unreadOnly bool) ([]models.Notification, error) {
	key := notificationKeyPrefix + userID
	raw, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session notifications: %w", err)
	}

	out := make([]models.Notification, 0, len(raw))
	for _, entry := range raw {
		var n models.Notification
		if err := json.Unmarshal([]byte(entry), &n); err != nil {
			slog.Warn("skipping undecodable session notification", "error", err)
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MarkNotificationRead flips the read flag on a session notification.
// Returns false when the notification is not in the session list.
func (c *SessionCache) MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error) {
	key := notificationKeyPrefix + userID
	raw, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read session notifications: %w", err)
	}

	found := false
	rebuilt := make([]any, 0, len(raw))
	for _, entry := range raw {
		var n models.Notification
		if err := json.Unmarshal([]byte(entry), &n); err == nil && n.NotificationID == notificationID {
			n.Read = true
			found = true
			updated, err := json.Marshal(n)
			if err != nil {
				return false, fmt.Errorf("failed to encode session notification: %w", err)
			}
			rebuilt = append(rebuilt, string(updated))
			continue
		}
		rebuilt = append(rebuilt, entry)
	}
	if !found {
		return false, nil
	}
	if err := c.rewrite(ctx, key, rebuilt); err != nil {
		return false, err
	}
	return true, nil
}

func (c *SessionCache) push(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session entry: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, body)
	pipe.LTrim(ctx, key, 0, MaxEntriesPerUser-1)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write session entry: %w", err)
	}
	return nil
}

// rewrite replaces a list atomically, preserving order (entries are
// stored newest first).
func (c *SessionCache) rewrite(ctx context.Context, key string, entries []any) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(entries) > 0 {
		pipe.RPush(ctx, key, entries...)
		pipe.Expire(ctx, key, sessionTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rewrite session list: %w", err)
	}
	return nil
}
