package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"evcharge/backend/services/stations-service/internal/models"
	"evcharge/backend/services/stations-service/internal/service"
)

// StationQueries is the read surface used by the map endpoints.
type StationQueries interface {
	Markers(ctx context.Context) ([]models.StationMarker, error)
	Nearby(ctx context.Context, in service.NearbyInput) ([]models.StationMarker, error)
	Detail(ctx context.Context, id string) (*models.StationDetail, error)
}

// StationsHandlers serves /stations endpoints.
type StationsHandlers struct {
	svc    StationQueries
	logger *zap.Logger
}

// NewStationsHandlers builds handler set.
func NewStationsHandlers(svc StationQueries, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{svc: svc, logger: logger}
}

// List handles GET /stations.
func (h *StationsHandlers) List(w http.ResponseWriter, r *http.Request) {
	markers, err := h.svc.Markers(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, markers)
}

// Nearby handles GET /stations/nearby?lat=&lng=&radius=.
func (h *StationsHandlers) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(q.Get("lng")), 64)
	if latErr != nil || lngErr != nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required numbers")
		return
	}
	var radius float64
	if raw := strings.TrimSpace(q.Get("radius")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid radius")
			return
		}
		radius = v
	}

	markers, err := h.svc.Nearby(r.Context(), service.NearbyInput{Lat: lat, Lng: lng, Radius: radius})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, markers)
}

// Detail handles GET /stations/{id}.
func (h *StationsHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Detail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
