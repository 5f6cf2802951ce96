package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PlantingWindow buckets a planting by how close its harvest is.
type PlantingWindow string

const (
	WindowOngoing  PlantingWindow = "ongoing"
	WindowUpcoming PlantingWindow = "upcoming"
	WindowPast     PlantingWindow = "past"
)

// CareTask is one scheduled action with an absolute due date, derived
// from a CropProfile and a planting date. Attribute names match the
// stored wire format.
type CareTask struct {
	Task      string `json:"task" db:"task"`
	DueDate   Date   `json:"due_date" db:"due_date"`
	IsHarvest bool   `json:"is_harvest,omitempty" db:"is_harvest"`
}

// CarePlan is an ordered list of care tasks, stored as JSONB.
type CarePlan []CareTask

func (p CarePlan) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

func (p *CarePlan) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into CarePlan", src)
	}
}

// Planting is a user-owned crop with a planting date. The plan column is
// a cached rendering only: every read path regenerates the plan from
// crop_name + planting_date so it reflects the current knowledge base.
type Planting struct {
	PlantingID   string    `json:"planting_id" db:"planting_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Username     string    `json:"username,omitempty" db:"username"`
	CropName     string    `json:"crop_name" db:"crop_name"`
	PlantingDate Date      `json:"planting_date" db:"planting_date"`
	Plan         CarePlan  `json:"plan" db:"plan"`
	ImageURL     string    `json:"image_url,omitempty" db:"image_url"`
	Notes        string    `json:"notes,omitempty" db:"notes"`
	BatchID      string    `json:"batch_id,omitempty" db:"batch_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HarvestTask returns the synthesized harvest task of a plan, or false
// when the plan has none.
func (p CarePlan) HarvestTask() (CareTask, bool) {
	for _, task := range p {
		if task.IsHarvest {
			return task, true
		}
	}
	return CareTask{}, false
}
