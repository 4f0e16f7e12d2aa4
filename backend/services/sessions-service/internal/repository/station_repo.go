package repository

import (
	"context"
	"database/sql"
	"errors"

	"evcharge/backend/services/sessions-service/internal/models"
)

// ErrStationNotFound indicates an unknown station id.
var ErrStationNotFound = errors.New("station not found")

// StationRepository reads station coordinates from the shared catalog.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository builds repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

// GetStation returns station by id.
func (r *StationRepository) GetStation(ctx context.Context, id string) (*models.Station, error) {
	const query = `SELECT id, name, address, lat, lng FROM stations WHERE id = $1`
	var st models.Station
	err := r.db.QueryRowContext(ctx, query, id).Scan(&st.ID, &st.Name, &st.Address, &st.Lat, &st.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
