package service

import (
	"context"
	"errors"
	"testing"

	"evcharge/backend/libs/geo"
	"evcharge/backend/services/stations-service/internal/models"
	"evcharge/backend/services/stations-service/internal/repository"
)

type fakeCatalog struct {
	markers  []repository.MarkerCounts
	stations map[string]*models.Station
	chargers map[string][]models.Charger
	lastBox  *geo.Box
	err      error
}

func (f *fakeCatalog) ListMarkers(context.Context) ([]repository.MarkerCounts, error) {
	return f.markers, f.err
}

func (f *fakeCatalog) ListMarkersInBox(_ context.Context, box geo.Box) ([]repository.MarkerCounts, error) {
	f.lastBox = &box
	if f.err != nil {
		return nil, f.err
	}
	var out []repository.MarkerCounts
	for _, m := range f.markers {
		if m.Lat >= box.MinLat && m.Lat <= box.MaxLat && m.Lng >= box.MinLng && m.Lng <= box.MaxLng {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetStation(_ context.Context, id string) (*models.Station, error) {
	st, ok := f.stations[id]
	if !ok {
		return nil, repository.ErrStationNotFound
	}
	return st, nil
}

func (f *fakeCatalog) ListChargers(_ context.Context, id string) ([]models.Charger, error) {
	return f.chargers[id], nil
}

// Seoul City Hall and points roughly 500 m and 3 km north of it.
var (
	cityHall = repository.MarkerCounts{StationID: "A", Name: "City Hall", Lat: 37.5665, Lng: 126.9780, Available: 2, Total: 4}
	north500 = repository.MarkerCounts{StationID: "B", Name: "North", Lat: 37.5710, Lng: 126.9780, Available: 0, Total: 3}
	far3km   = repository.MarkerCounts{StationID: "C", Name: "Far", Lat: 37.5935, Lng: 126.9780, Available: 0, Total: 0}
)

func TestMarkersColours(t *testing.T) {
	svc := NewStationsService(&fakeCatalog{markers: []repository.MarkerCounts{cityHall, north500, far3km}}, 0)

	markers, err := svc.Markers(context.Background())
	if err != nil {
		t.Fatalf("Markers: %v", err)
	}
	want := []string{models.MarkerGreen, models.MarkerBlue, models.MarkerGray}
	for i, m := range markers {
		if m.MarkerColor != want[i] {
			t.Errorf("marker %s colour = %s, want %s", m.StationID, m.MarkerColor, want[i])
		}
		if m.DistanceM != nil {
			t.Errorf("marker %s should carry no distance", m.StationID)
		}
	}
}

func TestNearbyFiltersAndSortsByDistance(t *testing.T) {
	catalog := &fakeCatalog{markers: []repository.MarkerCounts{north500, far3km, cityHall}}
	svc := NewStationsService(catalog, 2000)

	markers, err := svc.Nearby(context.Background(), NearbyInput{Lat: 37.5665, Lng: 126.9780})
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if len(markers) != 2 {
		t.Fatalf("expected two markers within 2km, got %+v", markers)
	}
	if markers[0].StationID != "A" || markers[1].StationID != "B" {
		t.Fatalf("unexpected order %s, %s", markers[0].StationID, markers[1].StationID)
	}
	if *markers[0].DistanceM > 1 {
		t.Fatalf("expected ~0m for the centre station, got %f", *markers[0].DistanceM)
	}
	if d := *markers[1].DistanceM; d < 450 || d > 550 {
		t.Fatalf("expected ~500m, got %f", d)
	}
	if catalog.lastBox == nil {
		t.Fatal("expected bounding box prefilter")
	}

	wide, err := svc.Nearby(context.Background(), NearbyInput{Lat: 37.5665, Lng: 126.9780, Radius: 5000})
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if len(wide) != 3 {
		t.Fatalf("expected three markers within 5km, got %d", len(wide))
	}
}

func TestNearbyValidation(t *testing.T) {
	svc := NewStationsService(&fakeCatalog{}, 0)
	cases := []NearbyInput{
		{Lat: 91, Lng: 0},
		{Lat: 0, Lng: 181},
		{Lat: 37, Lng: 127, Radius: -1},
		{Lat: 37, Lng: 127, Radius: maxRadius + 1},
	}
	for _, in := range cases {
		if _, err := svc.Nearby(context.Background(), in); !errors.Is(err, ErrValidation) {
			t.Errorf("Nearby(%+v) err = %v, want validation", in, err)
		}
	}
}

func TestDetailLabels(t *testing.T) {
	catalog := &fakeCatalog{
		stations: map[string]*models.Station{"A": {ID: "A", Name: "City Hall"}},
		chargers: map[string][]models.Charger{"A": {
			{ID: "A_01", Status: models.ChargerAvailable},
			{ID: "A_02", Status: models.ChargerInUse},
			{ID: "A_03", Status: models.ChargerInspecting},
			{ID: "A_04", Status: models.ChargerFault},
		}},
	}
	svc := NewStationsService(catalog, 0)

	detail, err := svc.Detail(context.Background(), "A")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	want := []struct{ label, color string }{
		{LabelAvailable, models.MarkerGreen},
		{LabelCharging, models.MarkerBlue},
		{LabelUnavailable, models.MarkerGray},
		{LabelUnavailable, models.MarkerGray},
	}
	for i, ch := range detail.Chargers {
		if ch.StatusLabel != want[i].label || ch.MarkerColor != want[i].color {
			t.Errorf("charger %s = %s/%s, want %s/%s", ch.ID, ch.StatusLabel, ch.MarkerColor, want[i].label, want[i].color)
		}
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := NewStationsService(&fakeCatalog{stations: map[string]*models.Station{}}, 0)
	if _, err := svc.Detail(context.Background(), "missing"); !errors.Is(err, ErrStationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Detail(context.Background(), " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}
