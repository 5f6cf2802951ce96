package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smartharvester/internal/models"
	"smartharvester/internal/planner"

	"github.com/google/uuid"
)

// PlantingService owns the planting lifecycle: create, edit, delete, the
// classified dashboard view, reminder sweeps and session-to-durable
// migration. The stored plan is never trusted on read; it is regenerated
// from crop_name + planting_date so it always reflects the current
// knowledge base.
type PlantingService struct {
	store         PlantingStore
	cache         EphemeralCache
	reconciler    *Reconciler
	planner       *planner.PlanGenerator
	notifications *NotificationEngine
	timeout       time.Duration

	now func() time.Time
}

// PlantingInput is a create or edit submission.
type PlantingInput struct {
	PlantingID   string `json:"planting_id,omitempty"`
	UserID       string `json:"user_id"`
	Username     string `json:"username,omitempty"`
	CropName     string `json:"crop_name"`
	PlantingDate string `json:"planting_date"`
	ImageURL     string `json:"image_url,omitempty"`
	Notes        string `json:"notes,omitempty"`
	BatchID      string `json:"batch_id,omitempty"`
}

// PlantingOverview is the classified dashboard view of a user's merged
// plantings.
type PlantingOverview struct {
	Ongoing  []models.Planting `json:"ongoing"`
	Upcoming []models.Planting `json:"upcoming"`
	Past     []models.Planting `json:"past"`
	Degraded bool              `json:"degraded,omitempty"`
}

func NewPlantingService(
	store PlantingStore,
	cache EphemeralCache,
	reconciler *Reconciler,
	gen *planner.PlanGenerator,
	notifications *NotificationEngine,
	timeout time.Duration,
) *PlantingService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PlantingService{
		store:         store,
		cache:         cache,
		reconciler:    reconciler,
		planner:       gen,
		notifications: notifications,
		timeout:       timeout,
		now:           time.Now,
	}
}

// buildPlanting normalizes the crop, parses the date and regenerates the
// plan. Crop or date failures abort only this record.
func (s *PlantingService) buildPlanting(in PlantingInput) (*models.Planting, error) {
	canonical, err := s.planner.Normalize(in.CropName)
	if err != nil {
		return nil, err
	}
	date, err := models.ParseDate(in.PlantingDate)
	if err != nil {
		return nil, err
	}
	plan, err := s.planner.Generate(canonical, date)
	if err != nil {
		return nil, err
	}

	return &models.Planting{
		PlantingID:   in.PlantingID,
		UserID:       in.UserID,
		Username:     in.Username,
		CropName:     canonical,
		PlantingDate: date,
		Plan:         plan,
		ImageURL:     in.ImageURL,
		Notes:        in.Notes,
		BatchID:      in.BatchID,
	}, nil
}

// Create stores a new planting, dual-writing to the session cache for
// immediate visibility, and emits a plant_added notification.
func (s *PlantingService) Create(ctx context.Context, in PlantingInput) (*models.Planting, error) {
	p, err := s.buildPlanting(in)
	if err != nil {
		return nil, err
	}
	if p.PlantingID == "" {
		p.PlantingID = uuid.NewString()
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Save(storeCtx, p); err != nil {
		// The session cache keeps the planting visible until the durable
		// store recovers; reconcile dedupes once the write lands.
		slog.Warn("durable planting write failed, session cache carries it",
			"planting_id", p.PlantingID, "error", err)
	}
	if err := s.cache.AppendPlanting(ctx, *p); err != nil {
		slog.Warn("session cache write failed for new planting", "planting_id", p.PlantingID, "error", err)
	}

	s.emitAction(ctx, p, models.NotificationPlantAdded, "Plant Added",
		fmt.Sprintf("%s planted on %s has been added to your garden.", p.CropName, p.PlantingDate))
	return p, nil
}

// Update regenerates the plan from the edited fields and overwrites the
// durable record.
func (s *PlantingService) Update(ctx context.Context, in PlantingInput) (*models.Planting, error) {
	if in.PlantingID == "" {
		return nil, fmt.Errorf("%w: planting id required for update", models.ErrNotFound)
	}
	p, err := s.buildPlanting(in)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Save(storeCtx, p); err != nil {
		return nil, fmt.Errorf("failed to update planting: %w", err)
	}

	// Drop any stale session copy; the durable record is authoritative now.
	if err := s.cache.RemovePlanting(ctx, p.UserID, p.Username, p.PlantingID); err != nil {
		slog.Warn("failed to evict stale session planting", "planting_id", p.PlantingID, "error", err)
	}

	s.emitAction(ctx, p, models.NotificationPlantEdited, "Plant Updated",
		fmt.Sprintf("Your %s planting has been updated.", p.CropName))
	return p, nil
}

// Delete removes the planting from both tiers and emits plant_deleted.
func (s *PlantingService) Delete(ctx context.Context, userID, username, plantingID string) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cropName := "your crop"
	if existing, err := s.store.Get(storeCtx, plantingID); err == nil {
		cropName = existing.CropName
	}

	if err := s.store.Delete(storeCtx, plantingID); err != nil {
		return fmt.Errorf("failed to delete planting: %w", err)
	}
	if err := s.cache.RemovePlanting(ctx, userID, username, plantingID); err != nil {
		slog.Warn("failed to remove session planting", "planting_id", plantingID, "error", err)
	}

	s.emitAction(ctx, &models.Planting{PlantingID: plantingID, UserID: userID, CropName: cropName},
		models.NotificationPlantDeleted, "Plant Deleted",
		fmt.Sprintf("Your %s planting has been removed.", cropName))
	return nil
}

// Overview reconciles both tiers, regenerates every plan and buckets the
// plantings by harvest proximity.
func (s *PlantingService) Overview(ctx context.Context, userID, username string) (*PlantingOverview, error) {
	res, err := s.reconciler.Reconcile(ctx, userID, username)
	if err != nil {
		return nil, err
	}

	today := models.DateOf(s.now())
	overview := &PlantingOverview{
		Ongoing:  []models.Planting{},
		Upcoming: []models.Planting{},
		Past:     []models.Planting{},
		Degraded: res.Degraded,
	}

	for _, p := range res.Plantings {
		p.Plan = s.regenerate(p)
		switch planner.Classify(p.Plan, today) {
		case models.WindowPast:
			overview.Past = append(overview.Past, p)
		case models.WindowUpcoming:
			overview.Upcoming = append(overview.Upcoming, p)
		default:
			overview.Ongoing = append(overview.Ongoing, p)
		}
	}
	return overview, nil
}

// regenerate rebuilds the plan from the knowledge base, keeping the
// stored plan only when the crop is no longer resolvable.
func (s *PlantingService) regenerate(p models.Planting) models.CarePlan {
	plan, err := s.planner.Plan(p.CropName, p.PlantingDate.String())
	if err != nil {
		slog.Warn("plan regeneration failed, keeping stored plan",
			"planting_id", p.PlantingID, "crop_name", p.CropName, "error", err)
		return p.Plan
	}
	return plan
}

// EmitUpcomingReminders emits step and harvest reminders for every task
// due within the classification horizon. Duplicate reminders are
// suppressed by the engine's dedupe key, so re-running is safe.
func (s *PlantingService) EmitUpcomingReminders(ctx context.Context, userID, username string) (int, error) {
	res, err := s.reconciler.Reconcile(ctx, userID, username)
	if err != nil {
		return 0, err
	}

	today := models.DateOf(s.now())
	emitted := 0
	for _, p := range res.Plantings {
		plan := s.regenerate(p)
		for _, task := range plan {
			daysUntil := today.DaysUntil(task.DueDate)
			if daysUntil < 0 || daysUntil > planner.UpcomingHorizonDays {
				continue
			}

			in := EmitInput{
				UserID:     userID,
				PlantingID: p.PlantingID,
				Metadata: models.Metadata{
					"crop_name": p.CropName,
					"due_date":  task.DueDate.String(),
					"task":      task.Task,
				},
			}
			if task.IsHarvest {
				in.Type = models.NotificationHarvestReminder
				in.Title = fmt.Sprintf("Harvest Reminder: %s", p.CropName)
				in.Message = fmt.Sprintf("%s is ready to harvest in %d day(s) (%s).", p.CropName, daysUntil, task.DueDate)
			} else {
				in.Type = models.NotificationStepReminder
				in.Title = fmt.Sprintf("%s - %s", task.Task, p.CropName)
				in.Message = fmt.Sprintf("%s for %s is due %d day(s) from now (%s).", task.Task, p.CropName, daysUntil, task.DueDate)
			}

			result, err := s.notifications.Emit(ctx, in)
			if err != nil {
				slog.Warn("reminder emission failed", "user_id", userID, "crop_name", p.CropName, "error", err)
				continue
			}
			if !result.Skipped {
				emitted++
			}
		}
	}
	return emitted, nil
}

// MigrateSessionPlantings pushes session-cache plantings that never
// reached the durable store. Records already durable are skipped.
func (s *PlantingService) MigrateSessionPlantings(ctx context.Context, userID, username string) (int, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	durable, err := s.store.ListByUser(storeCtx, userID, username)
	if err != nil {
		return 0, fmt.Errorf("cannot migrate while durable store is unavailable: %w", err)
	}
	existing := make(map[string]struct{}, len(durable))
	for _, p := range durable {
		existing[p.PlantingID] = struct{}{}
	}

	cached, err := s.cache.ListPlantings(ctx, userID, username)
	if err != nil {
		return 0, fmt.Errorf("failed to read session plantings: %w", err)
	}

	migrated := 0
	for _, p := range cached {
		if _, ok := existing[p.PlantingID]; ok {
			continue
		}
		saveCtx, saveCancel := context.WithTimeout(ctx, s.timeout)
		err := s.store.Save(saveCtx, &p)
		saveCancel()
		if err != nil {
			slog.Warn("session planting migration failed", "planting_id", p.PlantingID, "error", err)
			continue
		}
		migrated++
	}
	if migrated > 0 {
		slog.Info("migrated session plantings to durable store", "user_id", userID, "migrated", migrated)
	}
	return migrated, nil
}

func (s *PlantingService) emitAction(ctx context.Context, p *models.Planting, t models.NotificationType, title, message string) {
	_, err := s.notifications.Emit(ctx, EmitInput{
		UserID:     p.UserID,
		Type:       t,
		Title:      title,
		Message:    message,
		PlantingID: p.PlantingID,
		Metadata:   models.Metadata{"crop_name": p.CropName},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("action notification failed", "type", t, "planting_id", p.PlantingID, "error", err)
	}
}
