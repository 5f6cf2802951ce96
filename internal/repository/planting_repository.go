package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartharvester/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PlantingRepository is the durable (authoritative) store for plantings.
// Reads resolve through an ordered strategy list: indexed query on
// user_id, then a paginated scan filtered on user_id, then the same scan
// on username.
type PlantingRepository struct {
	db *sqlx.DB
}

func NewPlantingRepository(db *sqlx.DB) *PlantingRepository {
	return &PlantingRepository{db: db}
}

func (r *PlantingRepository) Save(ctx context.Context, p *models.Planting) error {
	if p.PlantingID == "" {
		p.PlantingID = uuid.NewString()
	}
	if p.UserID == "" && p.Username == "" {
		return fmt.Errorf("planting %s has neither user_id nor username, refusing to write", p.PlantingID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()

	query := `
		INSERT INTO plantings (
			planting_id, user_id, username, crop_name, planting_date,
			plan, image_url, notes, batch_id, created_at, updated_at
		) VALUES (
			:planting_id, :user_id, :username, :crop_name, :planting_date,
			:plan, :image_url, :notes, :batch_id, :created_at, :updated_at
		)
		ON CONFLICT (planting_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username,
			crop_name = EXCLUDED.crop_name,
			planting_date = EXCLUDED.planting_date,
			plan = EXCLUDED.plan,
			image_url = EXCLUDED.image_url,
			notes = EXCLUDED.notes,
			batch_id = EXCLUDED.batch_id,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to save planting: %w", err)
	}
	return nil
}

func (r *PlantingRepository) Get(ctx context.Context, plantingID string) (*models.Planting, error) {
	var p models.Planting
	query := `SELECT * FROM plantings WHERE planting_id = $1`

	err := r.db.GetContext(ctx, &p, query, plantingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: planting %s", models.ErrNotFound, plantingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get planting: %w", err)
	}
	return &p, nil
}

func (r *PlantingRepository) Delete(ctx context.Context, plantingID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plantings WHERE planting_id = $1`, plantingID); err != nil {
		return fmt.Errorf("failed to delete planting: %w", err)
	}
	return nil
}

// ListByUser returns all plantings owned by the user. The username stage
// only runs when the user_id stages produced nothing and a username is
// available.
func (r *PlantingRepository) ListByUser(ctx context.Context, userID, username string) ([]models.Planting, error) {
	strategies := []queryStrategy[models.Planting]{
		{name: "user_id-index", run: func(ctx context.Context) ([]models.Planting, error) {
			return r.queryByIndex(ctx, userID)
		}},
		{name: "scan-filter-user_id", run: func(ctx context.Context) ([]models.Planting, error) {
			return r.scanWithFilter(ctx, func(p models.Planting) bool { return p.UserID == userID })
		}},
	}
	if username != "" {
		strategies = append(strategies, queryStrategy[models.Planting]{
			name: "scan-filter-username", run: func(ctx context.Context) ([]models.Planting, error) {
				return r.scanWithFilter(ctx, func(p models.Planting) bool { return p.Username == username })
			}})
	}
	return runStrategies(ctx, "plantings", strategies)
}

func (r *PlantingRepository) queryByIndex(ctx context.Context, userID string) ([]models.Planting, error) {
	var plantings []models.Planting
	query := `SELECT * FROM plantings WHERE user_id = $1 ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &plantings, query, userID); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrIndexUnavailable, err)
	}
	return plantings, nil
}

// scanWithFilter pages through the whole table in primary-key order and
// filters client-side. Partial pagination is never reported as a miss:
// every page is consumed before the result is returned.
func (r *PlantingRepository) scanWithFilter(ctx context.Context, match func(models.Planting) bool) ([]models.Planting, error) {
	var out []models.Planting
	cursor := ""
	for {
		var page []models.Planting
		query := `SELECT * FROM plantings WHERE planting_id > $1 ORDER BY planting_id LIMIT $2`
		if err := r.db.SelectContext(ctx, &page, query, cursor, scanPageSize); err != nil {
			return nil, fmt.Errorf("planting scan failed: %w", err)
		}
		for _, p := range page {
			if match(p) {
				out = append(out, p)
			}
		}
		if len(page) < scanPageSize {
			return out, nil
		}
		cursor = page[len(page)-1].PlantingID
	}
}
