package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"evcharge/backend/services/stations-service/internal/catalogsync"
	"evcharge/backend/services/stations-service/internal/models"
	"evcharge/backend/services/stations-service/internal/service"
)

type stubQueries struct {
	nearbyIn service.NearbyInput
	detailID string
	err      error
}

func (s *stubQueries) Markers(context.Context) ([]models.StationMarker, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.StationMarker{{StationID: "A", MarkerColor: models.MarkerGreen}}, nil
}

func (s *stubQueries) Nearby(_ context.Context, in service.NearbyInput) ([]models.StationMarker, error) {
	s.nearbyIn = in
	if s.err != nil {
		return nil, s.err
	}
	d := 12.5
	return []models.StationMarker{{StationID: "A", DistanceM: &d}}, nil
}

func (s *stubQueries) Detail(_ context.Context, id string) (*models.StationDetail, error) {
	s.detailID = id
	if s.err != nil {
		return nil, s.err
	}
	return &models.StationDetail{Station: models.Station{ID: id}}, nil
}

func TestNearbyParsesQuery(t *testing.T) {
	stub := &stubQueries{}
	h := NewStationsHandlers(stub, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Nearby(rec, httptest.NewRequest(http.MethodGet, "/stations/nearby?lat=37.56&lng=126.97&radius=800", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if stub.nearbyIn != (service.NearbyInput{Lat: 37.56, Lng: 126.97, Radius: 800}) {
		t.Fatalf("unexpected input %+v", stub.nearbyIn)
	}
	var markers []models.StationMarker
	if err := json.NewDecoder(rec.Body).Decode(&markers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(markers) != 1 || markers[0].DistanceM == nil || *markers[0].DistanceM != 12.5 {
		t.Fatalf("unexpected markers %+v", markers)
	}
}

func TestNearbyRejectsBadQuery(t *testing.T) {
	h := NewStationsHandlers(&stubQueries{}, zap.NewNop())
	for _, target := range []string{
		"/stations/nearby",
		"/stations/nearby?lat=abc&lng=126",
		"/stations/nearby?lat=37&lng=126&radius=far",
	} {
		rec := httptest.NewRecorder()
		h.Nearby(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: radius", service.ErrValidation), http.StatusBadRequest},
		{service.ErrStationNotFound, http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := NewStationsHandlers(&stubQueries{err: tc.err}, zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/stations/X", nil)
		req.SetPathValue("id", "X")
		rec := httptest.NewRecorder()
		h.Detail(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

type stubRefresher struct {
	region string
	res    catalogsync.Result
	err    error
}

func (s *stubRefresher) Refresh(_ context.Context, region string) (catalogsync.Result, error) {
	s.region = region
	return s.res, s.err
}

func TestRefreshHandler(t *testing.T) {
	ref := &stubRefresher{res: catalogsync.Result{Region: "26", Pages: 2, Stations: 10, Chargers: 30}}
	rec := httptest.NewRecorder()
	NewRefreshHandler(ref, zap.NewNop())(rec, httptest.NewRequest(http.MethodPost, "/admin/stations/refresh?zcode=26", nil))

	if rec.Code != http.StatusOK || ref.region != "26" {
		t.Fatalf("status = %d region = %q", rec.Code, ref.region)
	}
	var got catalogsync.Result
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != ref.res {
		t.Fatalf("result = %+v", got)
	}
}

func TestRefreshHandlerReportsPartialFailure(t *testing.T) {
	ref := &stubRefresher{res: catalogsync.Result{Pages: 1}, err: errors.New("page 2 failed")}
	rec := httptest.NewRecorder()
	NewRefreshHandler(ref, zap.NewNop())(rec, httptest.NewRequest(http.MethodPost, "/admin/stations/refresh", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	var body refreshFailure
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Result.Pages != 1 {
		t.Fatalf("expected committed page count in body, got %+v", body)
	}
}
