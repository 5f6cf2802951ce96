package services

import (
	"context"
	"testing"
	"time"

	"smartharvester/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reminderInput(userID string) EmitInput {
	return EmitInput{
		UserID:  userID,
		Type:    models.NotificationHarvestReminder,
		Title:   "Harvest Reminder: Tomatoes",
		Message: "Tomatoes is ready to harvest in 3 day(s).",
		Metadata: models.Metadata{
			"crop_name": "Tomatoes",
			"due_date":  "2025-04-01",
			"task":      "Harvest",
		},
	}
}

func TestEmit_DuplicateReminderSkipped(t *testing.T) {
	store := &fakeNotificationStore{}
	engine := NewNotificationEngine(store, &fakeCache{}, time.Second)

	first, err := engine.Emit(context.Background(), reminderInput("u1"))
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.NotEmpty(t, first.NotificationID)

	second, err := engine.Emit(context.Background(), reminderInput("u1"))
	require.NoError(t, err)
	assert.True(t, second.Skipped, "same dedupe tuple must be a no-op")
	assert.Len(t, store.notifications, 1)
}

func TestEmit_DifferentDueDateIsNotDuplicate(t *testing.T) {
	store := &fakeNotificationStore{}
	engine := NewNotificationEngine(store, &fakeCache{}, time.Second)

	_, err := engine.Emit(context.Background(), reminderInput("u1"))
	require.NoError(t, err)

	in := reminderInput("u1")
	in.Metadata["due_date"] = "2025-04-02"
	result, err := engine.Emit(context.Background(), in)

	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Len(t, store.notifications, 2)
}

func TestEmit_ActionTypesNeverDeduped(t *testing.T) {
	store := &fakeNotificationStore{}
	engine := NewNotificationEngine(store, &fakeCache{}, time.Second)

	in := EmitInput{
		UserID:   "u1",
		Type:     models.NotificationPlantAdded,
		Title:    "Plant Added",
		Message:  "Tomatoes added.",
		Metadata: models.Metadata{"crop_name": "Tomatoes"},
	}

	for range 3 {
		result, err := engine.Emit(context.Background(), in)
		require.NoError(t, err)
		assert.False(t, result.Skipped)
	}
	assert.Len(t, store.notifications, 3, "each user action gets its own notification")
}

func TestEmit_FallsBackToSessionCache(t *testing.T) {
	store := &fakeNotificationStore{saveErr: models.ErrStoreUnavailable}
	cache := &fakeCache{}
	engine := NewNotificationEngine(store, cache, time.Second)

	result, err := engine.Emit(context.Background(), reminderInput("u1"))

	require.NoError(t, err, "durable failure must not surface to the caller")
	assert.NotEmpty(t, result.NotificationID)
	assert.Empty(t, store.notifications)
	assert.Len(t, cache.notifications, 1)
}

func TestEmit_BothTiersFailing(t *testing.T) {
	store := &fakeNotificationStore{saveErr: models.ErrStoreUnavailable}
	cache := &fakeCache{notifErr: models.ErrStoreUnavailable}
	engine := NewNotificationEngine(store, cache, time.Second)

	_, err := engine.Emit(context.Background(), EmitInput{
		UserID: "u1",
		Type:   models.NotificationPlantAdded,
		Title:  "Plant Added",
	})

	assert.Error(t, err)
}

func TestList_MergesCacheEntriesNewestFirst(t *testing.T) {
	store := &fakeNotificationStore{notifications: []models.Notification{
		{NotificationID: "n1", UserID: "u1", CreatedAt: 100},
		{NotificationID: "n2", UserID: "u1", CreatedAt: 300},
	}}
	cache := &fakeCache{notifications: []models.Notification{
		{NotificationID: "n2", UserID: "u1", CreatedAt: 300}, // also durable
		{NotificationID: "n3", UserID: "u1", CreatedAt: 200}, // cache only
	}}
	engine := NewNotificationEngine(store, cache, time.Second)

	list, err := engine.List(context.Background(), "u1", 0, false)

	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "n2", list[0].NotificationID)
	assert.Equal(t, "n3", list[1].NotificationID)
	assert.Equal(t, "n1", list[2].NotificationID)
}

func TestList_ServesCacheWhenDurableFails(t *testing.T) {
	store := &fakeNotificationStore{listErr: models.ErrStoreUnavailable}
	cache := &fakeCache{notifications: []models.Notification{
		{NotificationID: "n1", UserID: "u1", CreatedAt: 100},
	}}
	engine := NewNotificationEngine(store, cache, time.Second)

	list, err := engine.List(context.Background(), "u1", 0, false)

	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkAllRead_WeakSemantics(t *testing.T) {
	store := &fakeNotificationStore{
		notifications: []models.Notification{
			{NotificationID: "n1", UserID: "u1", CreatedAt: 1},
			{NotificationID: "n2", UserID: "u1", CreatedAt: 2},
			{NotificationID: "n3", UserID: "u1", CreatedAt: 3},
		},
		failMarkIDs: map[string]bool{"n2": true},
	}
	engine := NewNotificationEngine(store, &fakeCache{}, time.Second)

	marked, err := engine.MarkAllRead(context.Background(), "u1")

	require.NoError(t, err, "partial success is still success")
	assert.Equal(t, 2, marked)
}

func TestMarkRead_FallsBackToCache(t *testing.T) {
	store := &fakeNotificationStore{failMarkIDs: map[string]bool{"n1": true}}
	cache := &fakeCache{notifications: []models.Notification{
		{NotificationID: "n1", UserID: "u1"},
	}}
	engine := NewNotificationEngine(store, cache, time.Second)

	err := engine.MarkRead(context.Background(), "u1", "n1")

	require.NoError(t, err)
	assert.True(t, cache.notifications[0].Read)
}
