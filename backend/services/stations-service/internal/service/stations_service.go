package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"evcharge/backend/libs/geo"
	"evcharge/backend/services/stations-service/internal/models"
	"evcharge/backend/services/stations-service/internal/repository"
)

const (
	defaultRadius = 2000.0
	maxRadius     = 50000.0
)

// Charger status labels shown to drivers.
const (
	LabelAvailable   = "available"
	LabelCharging    = "charging"
	LabelUnavailable = "unavailable"
)

// CatalogReader is the read side of the station catalog.
type CatalogReader interface {
	ListMarkers(ctx context.Context) ([]repository.MarkerCounts, error)
	ListMarkersInBox(ctx context.Context, box geo.Box) ([]repository.MarkerCounts, error)
	GetStation(ctx context.Context, id string) (*models.Station, error)
	ListChargers(ctx context.Context, stationID string) ([]models.Charger, error)
}

// NearbyInput selects markers around a point. Radius 0 means the configured default.
type NearbyInput struct {
	Lat    float64
	Lng    float64
	Radius float64
}

// StationsService answers map queries.
type StationsService struct {
	catalog       CatalogReader
	defaultRadius float64
}

// NewStationsService builds service.
func NewStationsService(catalog CatalogReader, radius float64) *StationsService {
	if radius <= 0 {
		radius = defaultRadius
	}
	return &StationsService{catalog: catalog, defaultRadius: radius}
}

// Markers returns every station marker.
func (s *StationsService) Markers(ctx context.Context) ([]models.StationMarker, error) {
	rows, err := s.catalog.ListMarkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	markers := make([]models.StationMarker, 0, len(rows))
	for _, row := range rows {
		markers = append(markers, toMarker(row))
	}
	return markers, nil
}

// Nearby returns markers within the radius, closest first.
func (s *StationsService) Nearby(ctx context.Context, in NearbyInput) ([]models.StationMarker, error) {
	center := geo.Point{Lat: in.Lat, Lng: in.Lng}
	if !center.Valid() {
		return nil, validationError("coordinates out of range")
	}
	radius := in.Radius
	if radius == 0 {
		radius = s.defaultRadius
	}
	if radius < 0 || radius > maxRadius {
		return nil, validationError("radius must be between 0 and %.0f meters", maxRadius)
	}

	rows, err := s.catalog.ListMarkersInBox(ctx, geo.BoundingBox(center, radius))
	if err != nil {
		return nil, fmt.Errorf("list markers in box: %w", err)
	}

	markers := make([]models.StationMarker, 0, len(rows))
	for _, row := range rows {
		d := geo.Distance(center, geo.Point{Lat: row.Lat, Lng: row.Lng})
		if d > radius {
			continue
		}
		m := toMarker(row)
		m.DistanceM = &d
		markers = append(markers, m)
	}
	sort.SliceStable(markers, func(i, j int) bool {
		return *markers[i].DistanceM < *markers[j].DistanceM
	})
	return markers, nil
}

// Detail returns a station with labelled chargers.
func (s *StationsService) Detail(ctx context.Context, id string) (*models.StationDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validationError("station id required")
	}
	station, err := s.catalog.GetStation(ctx, id)
	if errors.Is(err, repository.ErrStationNotFound) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get station: %w", err)
	}
	chargers, err := s.catalog.ListChargers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list chargers: %w", err)
	}

	detail := &models.StationDetail{Station: *station, Chargers: make([]models.ChargerView, 0, len(chargers))}
	for _, ch := range chargers {
		label, color := chargerLabel(ch.Status)
		detail.Chargers = append(detail.Chargers, models.ChargerView{Charger: ch, StatusLabel: label, MarkerColor: color})
	}
	return detail, nil
}

func toMarker(row repository.MarkerCounts) models.StationMarker {
	return models.StationMarker{
		StationID:      row.StationID,
		StationName:    row.Name,
		Lat:            row.Lat,
		Lng:            row.Lng,
		AvailableCount: row.Available,
		TotalCount:     row.Total,
		MarkerColor:    markerColor(row.Available, row.Total),
	}
}

// markerColor is GREEN with any free charger, BLUE when all are taken, GRAY without chargers.
func markerColor(available, total int) string {
	switch {
	case available > 0:
		return models.MarkerGreen
	case total > 0:
		return models.MarkerBlue
	default:
		return models.MarkerGray
	}
}

func chargerLabel(status string) (string, string) {
	switch status {
	case models.ChargerAvailable:
		return LabelAvailable, models.MarkerGreen
	case models.ChargerInUse:
		return LabelCharging, models.MarkerBlue
	default:
		return LabelUnavailable, models.MarkerGray
	}
}
