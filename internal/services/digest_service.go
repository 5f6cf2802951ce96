package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"smartharvester/internal/config"
	"smartharvester/internal/models"
	"smartharvester/internal/planner"
)

// ErrScanInProgress guards the digest job against re-entrant runs.
var ErrScanInProgress = errors.New("digest scan already in progress")

// DigestService is the batch job that walks every user, reconciles their
// plantings, collects tasks and harvests due within the horizon and
// publishes one digest message per user. Per-user failures are counted
// and never abort the scan; only configuration errors discovered before
// the scan starts do.
type DigestService struct {
	users      UserStore
	reconciler *Reconciler
	planner    *planner.PlanGenerator
	publisher  Publisher
	cfg        config.DigestConfig

	pause   func(time.Duration)
	now     func() time.Time
	running atomic.Bool
}

// DigestReport is the aggregate outcome of one scan.
type DigestReport struct {
	Total     int       `json:"total"`
	Sent      int       `json:"sent"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

type upcomingItem struct {
	CropName  string
	Task      string
	DueDate   models.Date
	DaysUntil int
}

func NewDigestService(
	users UserStore,
	reconciler *Reconciler,
	gen *planner.PlanGenerator,
	publisher Publisher,
	cfg config.DigestConfig,
) *DigestService {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	return &DigestService{
		users:      users,
		reconciler: reconciler,
		planner:    gen,
		publisher:  publisher,
		cfg:        cfg,
		pause:      time.Sleep,
		now:        time.Now,
	}
}

// Run executes one full scan. The scan is single-flight: a second Run
// while one is active returns ErrScanInProgress.
func (s *DigestService) Run(ctx context.Context) (DigestReport, error) {
	if s.publisher == nil {
		return DigestReport{}, fmt.Errorf("%w: digest publisher not configured", models.ErrConfigMissing)
	}
	if !s.running.CompareAndSwap(false, true) {
		return DigestReport{}, ErrScanInProgress
	}
	defer s.running.Store(false)

	users, err := s.users.ScanAll(ctx)
	if err != nil {
		return DigestReport{}, fmt.Errorf("failed to scan users: %w", err)
	}

	report := DigestReport{Total: len(users), Timestamp: s.now()}
	slog.Info("digest scan started", "total_users", len(users), "horizon_days", s.cfg.HorizonDays)

	for i, user := range users {
		if user.Identifier() == "" {
			slog.Warn("skipping user without identifier")
			report.Skipped++
			continue
		}
		if user.Email == "" {
			slog.Debug("skipping user without email", "user", user.Identifier())
			report.Skipped++
			continue
		}
		if !user.NotificationsEnabled {
			slog.Debug("skipping user with notifications disabled", "user", user.Identifier())
			report.Skipped++
			continue
		}

		if err := s.processUser(ctx, user); err != nil {
			slog.Error("digest failed for user", "user", user.Identifier(), "error", err)
			report.Failed++
		} else {
			report.Sent++
		}

		// Pacing against the pub/sub collaborator's rate limits.
		if (i+1)%s.cfg.BatchSize == 0 {
			slog.Info("digest scan progress",
				"processed", i+1, "total", report.Total,
				"sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
			s.pause(s.cfg.BatchPause)
		}
	}

	slog.Info("digest scan complete",
		"total", report.Total, "sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (s *DigestService) processUser(ctx context.Context, user models.User) error {
	res, err := s.reconciler.Reconcile(ctx, user.UserID, user.Username)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	tasks, harvests := s.collectUpcoming(res.Plantings)
	subject, body := s.buildMessage(user, tasks, harvests)

	if _, err := s.publisher.Publish(ctx, subject, body); err != nil {
		return fmt.Errorf("digest publish failed: %w", err)
	}
	return nil
}

// collectUpcoming regenerates every plan and picks the tasks due within
// the horizon, split into harvests and regular tasks, each sorted by due
// date.
func (s *DigestService) collectUpcoming(plantings []models.Planting) (tasks, harvests []upcomingItem) {
	today := models.DateOf(s.now())

	for _, p := range plantings {
		plan, err := s.planner.Plan(p.CropName, p.PlantingDate.String())
		if err != nil {
			// Unresolvable crop or date: the stored plan is the best we have.
			slog.Warn("digest plan regeneration failed, using stored plan",
				"planting_id", p.PlantingID, "crop_name", p.CropName, "error", err)
			plan = p.Plan
		}

		for _, task := range plan {
			daysUntil := today.DaysUntil(task.DueDate)
			if daysUntil < 0 || daysUntil > s.cfg.HorizonDays {
				continue
			}
			item := upcomingItem{
				CropName:  p.CropName,
				Task:      task.Task,
				DueDate:   task.DueDate,
				DaysUntil: daysUntil,
			}
			if task.IsHarvest {
				harvests = append(harvests, item)
			} else {
				tasks = append(tasks, item)
			}
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DaysUntil < tasks[j].DaysUntil })
	sort.SliceStable(harvests, func(i, j int) bool { return harvests[i].DaysUntil < harvests[j].DaysUntil })
	return tasks, harvests
}

// buildMessage composes the per-user digest.
func (s *DigestService) buildMessage(user models.User, tasks, harvests []upcomingItem) (subject, body string) {
	name := user.Username
	if name == "" {
		name = "Gardener"
	}

	subject = fmt.Sprintf("SmartHarvester Daily Update - %s", s.now().UTC().Format("2006-01-02"))

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	b.WriteString("Here is your SmartHarvester daily update about your plantings:\n\n")

	if len(tasks)+len(harvests) == 0 {
		fmt.Fprintf(&b, "No upcoming tasks or harvests in the next %d days. Keep up the great work!\n\n", s.cfg.HorizonDays)
	} else {
		if len(harvests) > 0 {
			b.WriteString("UPCOMING HARVESTS:\n")
			for _, h := range harvests {
				fmt.Fprintf(&b, "  - %s: Harvest due %s (%s)\n", h.CropName, dueText(h.DaysUntil), h.DueDate)
			}
			b.WriteString("\n")
		}
		if len(tasks) > 0 {
			b.WriteString("UPCOMING TASKS:\n")
			for _, t := range tasks {
				fmt.Fprintf(&b, "  - %s: %s due %s (%s)\n", t.CropName, t.Task, dueText(t.DaysUntil), t.DueDate)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("Login to your dashboard to see all your plantings and manage your garden.\n\n")
	b.WriteString("Happy gardening!\nSmartHarvester Team")
	return subject, b.String()
}

func dueText(daysUntil int) string {
	if daysUntil == 0 {
		return "today"
	}
	return fmt.Sprintf("in %d day(s)", daysUntil)
}
