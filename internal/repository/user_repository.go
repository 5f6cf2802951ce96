package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smartharvester/internal/models"

	"github.com/jmoiron/sqlx"
)

// UserRepository stores accounts keyed by username, with user_id carried
// as an indexed attribute so plantings and notifications can associate
// either way.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Save(ctx context.Context, u *models.User) error {
	if u.Username == "" {
		u.Username = u.UserID
	}
	if u.UserID == "" {
		u.UserID = u.Username
	}
	if u.Username == "" {
		return fmt.Errorf("user has neither username nor user_id, refusing to write")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = time.Now()

	query := `
		INSERT INTO users (username, user_id, email, notifications_enabled, created_at, updated_at)
		VALUES (:username, :user_id, :email, :notifications_enabled, :created_at, :updated_at)
		ON CONFLICT (username) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			email = EXCLUDED.email,
			notifications_enabled = EXCLUDED.notifications_enabled,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Get resolves a user by username (primary key) first, then by the
// user_id attribute via index and scan fallback.
func (r *UserRepository) Get(ctx context.Context, usernameOrUserID string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE username = $1`, usernameOrUserID)
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		slog.Warn("user lookup by primary key failed, trying user_id", "error", err)
	}

	strategies := []queryStrategy[models.User]{
		{name: "user_id-index", run: func(ctx context.Context) ([]models.User, error) {
			var users []models.User
			if err := r.db.SelectContext(ctx, &users,
				`SELECT * FROM users WHERE user_id = $1`, usernameOrUserID); err != nil {
				return nil, fmt.Errorf("%w: %w", models.ErrIndexUnavailable, err)
			}
			return users, nil
		}},
		{name: "scan-filter-user_id", run: func(ctx context.Context) ([]models.User, error) {
			return r.scanWithFilter(ctx, func(u models.User) bool { return u.UserID == usernameOrUserID })
		}},
	}
	users, err := runStrategies(ctx, "users", strategies)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, usernameOrUserID)
	}
	return &users[0], nil
}

// ScanAll pages through every user. Used by the digest batch job.
func (r *UserRepository) ScanAll(ctx context.Context) ([]models.User, error) {
	return r.scanWithFilter(ctx, func(models.User) bool { return true })
}

func (r *UserRepository) scanWithFilter(ctx context.Context, match func(models.User) bool) ([]models.User, error) {
	var out []models.User
	cursor := ""
	for {
		var page []models.User
		query := `SELECT * FROM users WHERE username > $1 ORDER BY username LIMIT $2`
		if err := r.db.SelectContext(ctx, &page, query, cursor, scanPageSize); err != nil {
			return nil, fmt.Errorf("user scan failed: %w", err)
		}
		for _, u := range page {
			if match(u) {
				out = append(out, u)
			}
		}
		if len(page) < scanPageSize {
			return out, nil
		}
		cursor = page[len(page)-1].Username
	}
}

// UpdateNotificationPreference flips notifications_enabled for the user,
// trying the primary key first and falling back to matching user_id.
func (r *UserRepository) UpdateNotificationPreference(ctx context.Context, usernameOrUserID string, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET notifications_enabled = $1, updated_at = now() WHERE username = $2`,
		enabled, usernameOrUserID)
	if err == nil {
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
	} else {
		slog.Warn("preference update by primary key failed, trying user_id", "error", err)
	}

	res, err = r.db.ExecContext(ctx,
		`UPDATE users SET notifications_enabled = $1, updated_at = now() WHERE user_id = $2`,
		enabled, usernameOrUserID)
	if err != nil {
		return fmt.Errorf("failed to update notification preference: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", models.ErrNotFound, usernameOrUserID)
	}
	return nil
}

// GetNotificationPreference returns the stored preference, defaulting to
// enabled when the user is unknown or the lookup fails.
func (r *UserRepository) GetNotificationPreference(ctx context.Context, usernameOrUserID string) bool {
	u, err := r.Get(ctx, usernameOrUserID)
	if err != nil {
		slog.Debug("notification preference lookup missed, defaulting to enabled",
			"user", usernameOrUserID, "error", err)
		return true
	}
	return u.NotificationsEnabled
}
