package repository

import (
	"context"
	"database/sql"
	"errors"

	"evcharge/backend/services/sessions-service/internal/models"
)

// ErrCarbonConfigNotFound is returned when no emission constants are configured.
var ErrCarbonConfigNotFound = errors.New("carbon config not found")

// CarbonRepository persists carbon configs and records.
type CarbonRepository struct {
	db *sql.DB
}

// NewCarbonRepository builds repository.
func NewCarbonRepository(db *sql.DB) *CarbonRepository {
	return &CarbonRepository{db: db}
}

// LatestConfig returns the most recently updated config.
func (r *CarbonRepository) LatestConfig(ctx context.Context) (*models.CarbonConfig, error) {
	const query = `
		SELECT id, gasoline_co2_per_l, avg_fuel_efficiency, ev_co2_per_kwh, config_version, updated_at
		FROM carbon_configs
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`
	var c models.CarbonConfig
	err := r.db.QueryRowContext(ctx, query).Scan(
		&c.ID,
		&c.GasolineCO2PerL,
		&c.AvgFuelEfficiency,
		&c.EVCO2PerKWh,
		&c.ConfigVersion,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCarbonConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveRecord stores the carbon saved by a session. One record per session.
func (r *CarbonRepository) SaveRecord(ctx context.Context, rec *models.CarbonRecord) error {
	const query = `
		INSERT INTO carbon_records (session_id, user_id, carbon_saved)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET carbon_saved = EXCLUDED.carbon_saved
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query, rec.SessionID, rec.UserID, rec.CarbonSaved).Scan(&rec.ID, &rec.CreatedAt)
}

// TotalByUser sums all carbon saved by the user.
func (r *CarbonRepository) TotalByUser(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(carbon_saved), 0) FROM carbon_records WHERE user_id = $1`, userID,
	).Scan(&total)
	return total, err
}
