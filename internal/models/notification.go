package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// NotificationType distinguishes one-shot action events from deduplicated
// reminders.
type NotificationType string

const (
	NotificationPlantAdded      NotificationType = "plant_added"
	NotificationPlantEdited     NotificationType = "plant_edited"
	NotificationPlantDeleted    NotificationType = "plant_deleted"
	NotificationHarvestReminder NotificationType = "harvest_reminder"
	NotificationStepReminder    NotificationType = "step_reminder"
)

// IsReminder reports whether emissions of this type must be deduplicated.
// Action types are emitted once per user action and are never deduped.
func (t NotificationType) IsReminder() bool {
	return t == NotificationHarvestReminder || t == NotificationStepReminder
}

// Metadata carries free-form notification attributes (crop_name,
// due_date, task, ...) as JSONB.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
}

// Notification is one in-app message for a user. CreatedAt is a unix
// timestamp to match the stored attribute format.
type Notification struct {
	NotificationID string           `json:"notification_id" db:"notification_id"`
	UserID         string           `json:"user_id" db:"user_id"`
	Type           NotificationType `json:"notification_type" db:"notification_type"`
	Title          string           `json:"title" db:"title"`
	Message        string           `json:"message" db:"message"`
	CreatedAt      int64            `json:"created_at" db:"created_at"`
	Read           bool             `json:"read" db:"is_read"`
	PlantingID     string           `json:"planting_id,omitempty" db:"planting_id"`
	Metadata       Metadata         `json:"metadata,omitempty" db:"metadata"`
}

// ReminderKey is the dedupe tuple for reminder-type notifications:
// (user_id, type, crop_name, due_date, task title). Two reminders with
// the same key are logically identical and only the first is written.
func (n Notification) ReminderKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		n.UserID, n.Type, n.Metadata["crop_name"], n.Metadata["due_date"], n.Metadata["task"])
}
