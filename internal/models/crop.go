package models

// CareTaskTemplate is one scheduled action in a crop's care schedule,
// expressed as a day offset from the planting date.
type CareTaskTemplate struct {
	Title     string `json:"task_title"`
	DayOffset int    `json:"days_after_planting"`
}

// HarvestWindow is the offset range, in days after planting, in which a
// crop is expected to be harvestable. Start drives the synthesized
// harvest task; End is informational.
type HarvestWindow struct {
	StartOffset int `json:"start"`
	EndOffset   int `json:"end"`
}

// CropProfile is the immutable reference entry for one crop type.
type CropProfile struct {
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	CareSchedule  []CareTaskTemplate `json:"care_schedule"`
	HarvestWindow HarvestWindow      `json:"harvest_window"`
}
