package services

import (
	"context"
	"testing"
	"time"

	"smartharvester/internal/models"
	"smartharvester/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plantingFixture struct {
	store         *fakePlantingStore
	cache         *fakeCache
	notifications *fakeNotificationStore
	service       *PlantingService
}

func newPlantingFixture() *plantingFixture {
	f := &plantingFixture{
		store:         newFakePlantingStore(),
		cache:         &fakeCache{},
		notifications: &fakeNotificationStore{},
	}
	gen := planner.NewPlanGenerator(planner.NewCropKnowledgeBase())
	reconciler := NewReconciler(f.store, f.cache, time.Second)
	engine := NewNotificationEngine(f.notifications, f.cache, time.Second)
	f.service = NewPlantingService(f.store, f.cache, reconciler, gen, engine, time.Second)
	f.service.now = func() time.Time {
		return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func TestCreate_GeneratesPlanAndNotifies(t *testing.T) {
	f := newPlantingFixture()

	p, err := f.service.Create(context.Background(), PlantingInput{
		UserID:       "u1",
		Username:     "grower",
		CropName:     "tomato",
		PlantingDate: "2025-06-01",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, p.PlantingID)
	assert.Equal(t, "Tomatoes", p.CropName, "crop name is stored canonically")
	assert.Len(t, p.Plan, 7)

	assert.Len(t, f.store.plantings, 1)
	assert.Len(t, f.cache.plantings, 1, "dual write keeps the session view fresh")

	require.Len(t, f.notifications.notifications, 1)
	assert.Equal(t, models.NotificationPlantAdded, f.notifications.notifications[0].Type)
}

func TestCreate_UnknownCropRejected(t *testing.T) {
	f := newPlantingFixture()

	_, err := f.service.Create(context.Background(), PlantingInput{
		UserID:       "u1",
		CropName:     "dragonfruit",
		PlantingDate: "2025-06-01",
	})

	assert.ErrorIs(t, err, models.ErrCropNotFound)
	assert.Empty(t, f.store.plantings)
	assert.Empty(t, f.notifications.notifications)
}

func TestCreate_SurvivesDurableOutage(t *testing.T) {
	f := newPlantingFixture()
	f.store.saveErr = models.ErrStoreUnavailable

	p, err := f.service.Create(context.Background(), PlantingInput{
		UserID:       "u1",
		CropName:     "Basil",
		PlantingDate: "2025-06-01",
	})

	require.NoError(t, err, "session cache carries the planting through the outage")
	require.Len(t, f.cache.plantings, 1)
	assert.NotEmpty(t, p.PlantingID)
	assert.Equal(t, p.PlantingID, f.cache.plantings[0].PlantingID)
}

func TestUpdate_RequiresPlantingID(t *testing.T) {
	f := newPlantingFixture()

	_, err := f.service.Update(context.Background(), PlantingInput{
		UserID:       "u1",
		CropName:     "Basil",
		PlantingDate: "2025-06-01",
	})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete_RemovesBothTiersAndNotifies(t *testing.T) {
	f := newPlantingFixture()
	p, err := f.service.Create(context.Background(), PlantingInput{
		UserID:       "u1",
		CropName:     "Mint",
		PlantingDate: "2025-06-01",
	})
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), "u1", "", p.PlantingID)

	require.NoError(t, err)
	assert.Empty(t, f.store.plantings)
	assert.Empty(t, f.cache.plantings)

	require.Len(t, f.notifications.notifications, 2)
	assert.Equal(t, models.NotificationPlantDeleted, f.notifications.notifications[1].Type)
	assert.Contains(t, f.notifications.notifications[1].Message, "Mint")
}

func TestOverview_BucketsByHarvestProximity(t *testing.T) {
	f := newPlantingFixture()

	// Fixed clock 2025-06-01. Radish harvests land 21 days after planting.
	for id, planted := range map[string]models.Date{
		"past":     models.NewDate(2025, time.March, 1), // harvested 2025-03-22
		"upcoming": models.NewDate(2025, time.May, 11),  // harvest 2025-06-01
		"ongoing":  models.NewDate(2025, time.May, 30),  // harvest 2025-06-20
	} {
		f.store.plantings[id] = models.Planting{
			PlantingID:   id,
			UserID:       "u1",
			CropName:     "Radishes",
			PlantingDate: planted,
		}
	}

	overview, err := f.service.Overview(context.Background(), "u1", "")

	require.NoError(t, err)
	assert.False(t, overview.Degraded)
	require.Len(t, overview.Past, 1)
	require.Len(t, overview.Upcoming, 1)
	require.Len(t, overview.Ongoing, 1)
	assert.Equal(t, "past", overview.Past[0].PlantingID)
	assert.Equal(t, "upcoming", overview.Upcoming[0].PlantingID)
	assert.Equal(t, "ongoing", overview.Ongoing[0].PlantingID)
}

func TestOverview_DegradedPassthrough(t *testing.T) {
	f := newPlantingFixture()
	f.store.listErr = models.ErrStoreUnavailable
	f.cache.plantings = []models.Planting{{
		PlantingID:   "p1",
		UserID:       "u1",
		CropName:     "Basil",
		PlantingDate: models.NewDate(2025, time.May, 1),
	}}

	overview, err := f.service.Overview(context.Background(), "u1", "")

	require.NoError(t, err)
	assert.True(t, overview.Degraded)
}

func TestEmitUpcomingReminders_CountsAndDedupes(t *testing.T) {
	f := newPlantingFixture()

	// Radishes planted 18 days before the fixed clock: the day-21 step and
	// the harvest both land 3 days out.
	f.store.plantings["p1"] = models.Planting{
		PlantingID:   "p1",
		UserID:       "u1",
		CropName:     "Radishes",
		PlantingDate: models.NewDate(2025, time.May, 14),
	}

	emitted, err := f.service.EmitUpcomingReminders(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, emitted, "one step reminder plus one harvest reminder")

	again, err := f.service.EmitUpcomingReminders(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, again, "the sweep is idempotent")
	assert.Len(t, f.notifications.notifications, 2)
}

func TestMigrateSessionPlantings_SkipsExisting(t *testing.T) {
	f := newPlantingFixture()
	f.store.plantings["p1"] = testPlanting("p1", "u1", "Tomatoes")
	f.cache.plantings = []models.Planting{
		testPlanting("p1", "u1", "Tomatoes"),
		testPlanting("p2", "u1", "Basil"),
	}

	migrated, err := f.service.MigrateSessionPlantings(context.Background(), "u1", "")

	require.NoError(t, err)
	assert.Equal(t, 1, migrated)
	assert.Len(t, f.store.plantings, 2)
}

func TestMigrateSessionPlantings_RequiresDurableStore(t *testing.T) {
	f := newPlantingFixture()
	f.store.listErr = models.ErrStoreUnavailable

	_, err := f.service.MigrateSessionPlantings(context.Background(), "u1", "")

	assert.Error(t, err, "migration must not duplicate records it cannot see")
}
