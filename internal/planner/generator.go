package planner

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"smartharvester/internal/models"
)

// PlanGenerator derives a time-phased care plan from the crop knowledge
// base and a planting date. Generation is deterministic and idempotent:
// identical inputs always yield an identical task list, so callers can
// regenerate instead of trusting a stored plan.
type PlanGenerator struct {
	kb *CropKnowledgeBase
}

func NewPlanGenerator(kb *CropKnowledgeBase) *PlanGenerator {
	return &PlanGenerator{kb: kb}
}

// Normalize resolves a raw crop name to its canonical knowledge-base key.
// Stages, first match wins: exact, title case, case-insensitive, stripped
// trailing "s", substring in either direction. A miss is ErrCropNotFound;
// the caller must not silently substitute a default crop.
func (g *PlanGenerator) Normalize(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: empty crop name", models.ErrCropNotFound)
	}

	if _, ok := g.kb.Profile(name); ok {
		return name, nil
	}
	if title := titleCase(name); title != name {
		if _, ok := g.kb.Profile(title); ok {
			return title, nil
		}
	}

	lower := strings.ToLower(name)
	for _, key := range g.kb.Names() {
		if strings.ToLower(key) == lower {
			return key, nil
		}
	}

	stem := strings.TrimRight(lower, "s")
	for _, key := range g.kb.Names() {
		if strings.TrimRight(strings.ToLower(key), "s") == stem {
			return key, nil
		}
	}

	for _, key := range g.kb.Names() {
		keyLower := strings.ToLower(key)
		if strings.Contains(keyLower, lower) || strings.Contains(lower, keyLower) {
			return key, nil
		}
	}

	return "", fmt.Errorf("%w: %q", models.ErrCropNotFound, raw)
}

// titleCase upper-cases the first letter of each space-separated word,
// matching how crop keys are stored ("bell peppers" -> "Bell Peppers").
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Generate produces the ordered care plan for a canonical crop name and
// planting date. One harvest task is synthesized at the start of the
// harvest window with IsHarvest set. Tasks are sorted by due date
// ascending; ties keep schedule order.
func (g *PlanGenerator) Generate(canonicalName string, plantingDate models.Date) (models.CarePlan, error) {
	profile, ok := g.kb.Profile(canonicalName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrCropNotFound, canonicalName)
	}
	if plantingDate.IsZero() {
		return nil, fmt.Errorf("%w: zero planting date for %q", models.ErrInvalidDate, canonicalName)
	}

	plan := make(models.CarePlan, 0, len(profile.CareSchedule)+1)
	for _, tmpl := range profile.CareSchedule {
		plan = append(plan, models.CareTask{
			Task:    tmpl.Title,
			DueDate: plantingDate.AddDays(tmpl.DayOffset),
		})
	}
	plan = append(plan, models.CareTask{
		Task:      "Harvest",
		DueDate:   plantingDate.AddDays(profile.HarvestWindow.StartOffset),
		IsHarvest: true,
	})

	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].DueDate.Time.Before(plan[j].DueDate.Time)
	})
	return plan, nil
}

// Plan is the convenience path used by services: normalize the raw crop
// name, parse the ISO-8601 planting date, and generate. A date failure
// aborts only the record that carries it.
func (g *PlanGenerator) Plan(rawCropName, plantingDate string) (models.CarePlan, error) {
	canonical, err := g.Normalize(rawCropName)
	if err != nil {
		slog.Warn("plan generation: crop not found", "crop_name", rawCropName)
		return nil, err
	}
	date, err := models.ParseDate(plantingDate)
	if err != nil {
		slog.Warn("plan generation: invalid planting date", "crop_name", rawCropName, "planting_date", plantingDate)
		return nil, err
	}
	return g.Generate(canonical, date)
}
