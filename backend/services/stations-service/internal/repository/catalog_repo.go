package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"evcharge/backend/libs/db"
	"evcharge/backend/libs/geo"
	"evcharge/backend/services/stations-service/internal/models"
)

// ErrStationNotFound indicates an unknown station id.
var ErrStationNotFound = errors.New("station not found")

const upsertStationSQL = `
INSERT INTO stations (id, name, address, lat, lng, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	lat = EXCLUDED.lat,
	lng = EXCLUDED.lng,
	updated_at = EXCLUDED.updated_at`

const upsertChargerSQL = `
INSERT INTO chargers (id, station_id, provider_charger_id, name, status, power_class, connector_type, status_updated_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	status = EXCLUDED.status,
	power_class = EXCLUDED.power_class,
	connector_type = EXCLUDED.connector_type,
	status_updated_at = EXCLUDED.status_updated_at,
	updated_at = EXCLUDED.updated_at`

const markerSQL = `
SELECT s.id, s.name, s.lat, s.lng,
	COUNT(c.id) FILTER (WHERE c.status = 'available'),
	COUNT(c.id)
FROM stations s
LEFT JOIN chargers c ON c.station_id = s.id`

// MarkerCounts is a station with its charger counts.
type MarkerCounts struct {
	StationID string
	Name      string
	Lat       float64
	Lng       float64
	Available int
	Total     int
}

// CatalogRepository stores stations and chargers.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository builds repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// UpsertBatch writes stations then chargers in one transaction.
func (r *CatalogRepository) UpsertBatch(ctx context.Context, stations []models.Station, chargers []models.Charger) error {
	return db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		stationStmt, err := tx.PrepareContext(ctx, upsertStationSQL)
		if err != nil {
			return err
		}
		defer stationStmt.Close()

		for _, st := range stations {
			if _, err := stationStmt.ExecContext(ctx, st.ID, st.Name, st.Address, st.Lat, st.Lng, st.UpdatedAt); err != nil {
				return fmt.Errorf("upsert station %s: %w", st.ID, err)
			}
		}

		chargerStmt, err := tx.PrepareContext(ctx, upsertChargerSQL)
		if err != nil {
			return err
		}
		defer chargerStmt.Close()

		for _, ch := range chargers {
			if _, err := chargerStmt.ExecContext(ctx,
				ch.ID,
				ch.StationID,
				ch.ProviderChargerID,
				ch.Name,
				ch.Status,
				ch.PowerClass,
				ch.ConnectorType,
				ch.StatusUpdatedAt,
				ch.UpdatedAt,
			); err != nil {
				return fmt.Errorf("upsert charger %s: %w", ch.ID, err)
			}
		}
		return nil
	})
}

// GetStation returns station by id.
func (r *CatalogRepository) GetStation(ctx context.Context, id string) (*models.Station, error) {
	const query = `SELECT id, name, address, lat, lng, updated_at FROM stations WHERE id = $1`
	var st models.Station
	err := r.db.QueryRowContext(ctx, query, id).Scan(&st.ID, &st.Name, &st.Address, &st.Lat, &st.Lng, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListChargers returns chargers of a station ordered by id.
func (r *CatalogRepository) ListChargers(ctx context.Context, stationID string) ([]models.Charger, error) {
	const query = `
SELECT id, station_id, provider_charger_id, name, status, power_class, connector_type, status_updated_at, updated_at
FROM chargers WHERE station_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chargers []models.Charger
	for rows.Next() {
		var ch models.Charger
		if err := rows.Scan(
			&ch.ID,
			&ch.StationID,
			&ch.ProviderChargerID,
			&ch.Name,
			&ch.Status,
			&ch.PowerClass,
			&ch.ConnectorType,
			&ch.StatusUpdatedAt,
			&ch.UpdatedAt,
		); err != nil {
			return nil, err
		}
		chargers = append(chargers, ch)
	}
	return chargers, rows.Err()
}

// ListMarkers returns every station with counts.
func (r *CatalogRepository) ListMarkers(ctx context.Context) ([]MarkerCounts, error) {
	return r.queryMarkers(ctx, markerSQL+` GROUP BY s.id ORDER BY s.id`)
}

// ListMarkersInBox returns stations inside box with counts.
func (r *CatalogRepository) ListMarkersInBox(ctx context.Context, box geo.Box) ([]MarkerCounts, error) {
	query := markerSQL + `
WHERE s.lat BETWEEN $1 AND $2 AND s.lng BETWEEN $3 AND $4
GROUP BY s.id ORDER BY s.id`
	return r.queryMarkers(ctx, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
}

func (r *CatalogRepository) queryMarkers(ctx context.Context, query string, args ...any) ([]MarkerCounts, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MarkerCounts
	for rows.Next() {
		var m MarkerCounts
		if err := rows.Scan(&m.StationID, &m.Name, &m.Lat, &m.Lng, &m.Available, &m.Total); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
