package planner

import "smartharvester/internal/models"

// UpcomingHorizonDays is the fixed classification threshold: a harvest
// due exactly 7 days out is still Upcoming, 8 days out is Ongoing.
const UpcomingHorizonDays = 7

// Classify buckets a planting by its harvest due date relative to today.
// A plan without a determinable harvest date is Ongoing, never
// Upcoming or Past.
func Classify(plan models.CarePlan, today models.Date) models.PlantingWindow {
	harvest, ok := plan.HarvestTask()
	if !ok {
		return models.WindowOngoing
	}

	delta := today.DaysUntil(harvest.DueDate)
	switch {
	case delta < 0:
		return models.WindowPast
	case delta <= UpcomingHorizonDays:
		return models.WindowUpcoming
	default:
		return models.WindowOngoing
	}
}
