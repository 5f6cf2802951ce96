package models

import "time"

// User is an account known to the tracker. Username is the durable-store
// partition key; UserID is the stable subject id (or a derived local id)
// that plantings and notifications are scoped by.
type User struct {
	Username             string    `json:"username" db:"username"`
	UserID               string    `json:"user_id" db:"user_id"`
	Email                string    `json:"email,omitempty" db:"email"`
	NotificationsEnabled bool      `json:"notifications_enabled" db:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Identifier returns the id used to scope user-owned records, preferring
// the stable subject id over the username.
func (u User) Identifier() string {
	if u.UserID != "" {
		return u.UserID
	}
	return u.Username
}
