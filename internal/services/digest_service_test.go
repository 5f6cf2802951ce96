package services

import (
	"context"
	"testing"
	"time"

	"smartharvester/internal/config"
	"smartharvester/internal/models"
	"smartharvester/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type digestFixture struct {
	users     *fakeUserStore
	store     *fakePlantingStore
	publisher *fakePublisher
	service   *DigestService
	pauses    int
}

func newDigestFixture(cfg config.DigestConfig) *digestFixture {
	f := &digestFixture{
		users:     &fakeUserStore{},
		store:     newFakePlantingStore(),
		publisher: &fakePublisher{},
	}
	gen := planner.NewPlanGenerator(planner.NewCropKnowledgeBase())
	reconciler := NewReconciler(f.store, &fakeCache{}, time.Second)
	f.service = NewDigestService(f.users, reconciler, gen, f.publisher, cfg)
	f.service.pause = func(time.Duration) { f.pauses++ }
	f.service.now = func() time.Time {
		return time.Date(2025, time.January, 21, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func digestUser(id, email string, enabled bool) models.User {
	return models.User{Username: id, UserID: id, Email: email, NotificationsEnabled: enabled}
}

func TestDigestRun_CountsOutcomes(t *testing.T) {
	f := newDigestFixture(config.DigestConfig{HorizonDays: 7, BatchSize: 25})
	f.users.users = []models.User{
		digestUser("u1", "u1@example.com", true),
		digestUser("u2", "", true),                // no email
		digestUser("u3", "u3@example.com", false), // notifications off
		digestUser("u4", "u4@example.com", true),
	}
	f.publisher.failCalls = map[int]error{2: models.ErrPublishFailure} // u4's publish

	report, err := f.service.Run(context.Background())

	require.NoError(t, err, "per-user failures never abort the scan")
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Failed)
}

func TestDigestRun_MissingPublisher(t *testing.T) {
	f := newDigestFixture(config.DigestConfig{HorizonDays: 7, BatchSize: 25})
	f.service.publisher = nil

	_, err := f.service.Run(context.Background())

	assert.ErrorIs(t, err, models.ErrConfigMissing)
}

func TestDigestRun_PacingPause(t *testing.T) {
	f := newDigestFixture(config.DigestConfig{HorizonDays: 7, BatchSize: 2, BatchPause: time.Millisecond})
	for _, id := range []string{"u1", "u2", "u3", "u4", "u5"} {
		f.users.users = append(f.users.users, digestUser(id, id+"@example.com", true))
	}

	_, err := f.service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, f.pauses, "pause after every full batch")
}

func TestDigestRun_MessageContent(t *testing.T) {
	f := newDigestFixture(config.DigestConfig{HorizonDays: 7, BatchSize: 25})
	f.users.users = []models.User{digestUser("gardener", "g@example.com", true)}

	// Radishes planted 2025-01-01: step and harvest land on 2025-01-22,
	// one day out from the fixed clock.
	p := models.Planting{
		PlantingID:   "p1",
		UserID:       "gardener",
		CropName:     "Radishes",
		PlantingDate: models.NewDate(2025, time.January, 1),
	}
	f.store.plantings["p1"] = p

	report, err := f.service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, f.publisher.published, 1)

	msg := f.publisher.published[0]
	assert.Equal(t, "SmartHarvester Daily Update - 2025-01-21", msg.Subject)
	assert.Contains(t, msg.Body, "Hello gardener,")
	assert.Contains(t, msg.Body, "UPCOMING HARVESTS:")
	assert.Contains(t, msg.Body, "UPCOMING TASKS:")
	assert.Contains(t, msg.Body, "in 1 day(s)")
	assert.Contains(t, msg.Body, "Happy gardening!")
}

func TestDigestRun_EmptyStateMessage(t *testing.T) {
	f := newDigestFixture(config.DigestConfig{HorizonDays: 7, BatchSize: 25})
	f.users.users = []models.User{digestUser("u1", "u1@example.com", true)}

	report, err := f.service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent, "a user with nothing due still gets a digest")
	require.Len(t, f.publisher.published, 1)
	assert.Contains(t, f.publisher.published[0].Body,
		"No upcoming tasks or harvests in the next 7 days. Keep up the great work!")
}

func TestDigestRun_UserScanFailure(t *testing.T) {
	f := newDigestFixture(config.DigestConfig{HorizonDays: 7, BatchSize: 25})
	f.users.scanErr = models.ErrStoreUnavailable

	_, err := f.service.Run(context.Background())

	assert.Error(t, err)
}
