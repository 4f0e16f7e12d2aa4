package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"evcharge/backend/services/sessions-service/internal/receipt"
	"evcharge/backend/services/sessions-service/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps lifecycle errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var geofence *service.GeofenceError
	switch {
	case errors.As(err, &geofence):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":       service.ErrGeofenceViolation.Error(),
			"distance_m":  geofence.Distance,
			"tolerance_m": geofence.Tolerance,
		})
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAlreadyCharging):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStationNotFound), errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, receipt.ErrOCRService):
		logger.Warn("ocr call failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "receipt recognition unavailable")
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
