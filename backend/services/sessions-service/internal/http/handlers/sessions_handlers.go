package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"evcharge/backend/services/sessions-service/internal/http/middleware"
	"evcharge/backend/services/sessions-service/internal/models"
	"evcharge/backend/services/sessions-service/internal/receipt"
	"evcharge/backend/services/sessions-service/internal/service"
)

const (
	maxReceiptBytes = 10 << 20
	receiptField    = "file"
)

// SessionsService is the lifecycle surface used by the handlers.
type SessionsService interface {
	Start(ctx context.Context, in service.StartInput) (*models.Session, error)
	RequestReceiptParse(ctx context.Context, sessionID int64, image []byte, format string) (*receipt.Parsed, error)
	Finalize(ctx context.Context, in service.FinalizeInput) (*service.FinalizeResult, error)
	Cancel(ctx context.Context, sessionID, userID int64) error
	History(ctx context.Context, userID int64, limit int) ([]models.Session, error)
	Active(ctx context.Context, userID int64) (*models.Session, error)
}

// SessionsHandlers serves /sessions endpoints. All routes expect an authenticated user in context.
type SessionsHandlers struct {
	svc    SessionsService
	logger *zap.Logger
}

// NewSessionsHandlers builds handler set.
func NewSessionsHandlers(svc SessionsService, logger *zap.Logger) *SessionsHandlers {
	return &SessionsHandlers{svc: svc, logger: logger}
}

type startRequest struct {
	StationID       string   `json:"station_id"`
	UserLat         *float64 `json:"user_lat"`
	UserLng         *float64 `json:"user_lng"`
	StartKWh        float64  `json:"start_kwh"`
	TargetKWh       float64  `json:"target_kwh"`
	ChargerCapacity float64  `json:"charger_capacity"`
}

type finalizeRequest struct {
	ChargedKWh   float64 `json:"charged_kwh"`
	Cost         int64   `json:"cost"`
	DurationText string  `json:"duration_text"`
}

type receiptResponse struct {
	SessionID int64           `json:"session_id"`
	Parsed    *receipt.Parsed `json:"parsed"`
}

func (h *SessionsHandlers) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
	}
	return id, ok
}

// Start handles POST /sessions/start.
func (h *SessionsHandlers) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.StationID == "" || req.UserLat == nil || req.UserLng == nil {
		writeError(w, http.StatusBadRequest, "station_id, user_lat and user_lng are required")
		return
	}

	session, err := h.svc.Start(r.Context(), service.StartInput{
		UserID:          userID,
		StationID:       req.StationID,
		UserLat:         *req.UserLat,
		UserLng:         *req.UserLng,
		StartKWh:        req.StartKWh,
		TargetKWh:       req.TargetKWh,
		ChargerCapacity: req.ChargerCapacity,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Receipt handles POST /sessions/{id}/receipt with a multipart "file" part.
func (h *SessionsHandlers) Receipt(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	sessionID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes)
	file, header, err := r.FormFile(receiptField)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("receipt image exceeds %d bytes", tooLarge.Limit))
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read receipt image")
		return
	}

	format := receipt.FormatFor(header.Filename, header.Header.Get("Content-Type"))
	parsed, err := h.svc.RequestReceiptParse(r.Context(), sessionID, image, format)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse{SessionID: sessionID, Parsed: parsed})
}

// Finalize handles POST /sessions/{id}/finalize.
func (h *SessionsHandlers) Finalize(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.svc.Finalize(r.Context(), service.FinalizeInput{
		SessionID:    sessionID,
		UserID:       userID,
		ChargedKWh:   req.ChargedKWh,
		Cost:         req.Cost,
		DurationText: req.DurationText,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Cancel handles POST /sessions/{id}/cancel.
func (h *SessionsHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	sessionID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if err := h.svc.Cancel(r.Context(), sessionID, userID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /sessions/me.
func (h *SessionsHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Active handles GET /sessions/active.
func (h *SessionsHandlers) Active(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	session, err := h.svc.Active(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
