package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"evcharge/backend/libs/events"
	"evcharge/backend/libs/geo"
	"evcharge/backend/libs/metrics"
	"evcharge/backend/services/sessions-service/internal/models"
	"evcharge/backend/services/sessions-service/internal/receipt"
	redisstore "evcharge/backend/services/sessions-service/internal/redis"
	"evcharge/backend/services/sessions-service/internal/repository"
)

const defaultHistoryLimit = 50

// SessionStore persists sessions.
type SessionStore interface {
	CreateActive(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	ActiveByUser(ctx context.Context, userID int64) (*models.Session, error)
	Complete(ctx context.Context, id int64, c models.Completion) (*models.Session, error)
	DeleteActive(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Session, error)
}

// StationLookup resolves station coordinates.
type StationLookup interface {
	GetStation(ctx context.Context, id string) (*models.Station, error)
}

// UserStatusUpdater flips the user's charging flag.
type UserStatusUpdater interface {
	SetStatus(ctx context.Context, userID int64, status string) error
}

// ReceiptExtractor reads a receipt image.
type ReceiptExtractor interface {
	Extract(ctx context.Context, image []byte, format string) (*receipt.Parsed, error)
}

// CarbonAccounting records carbon saved per session.
type CarbonAccounting interface {
	ComputeAndRecord(ctx context.Context, sessionID, userID int64, chargedKWh float64) (float64, error)
	TotalSaved(ctx context.Context, userID int64) (float64, error)
}

// ActiveCache caches each user's CHARGING session.
type ActiveCache interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, userID int64) (*models.Session, error)
	Delete(ctx context.Context, userID int64) error
}

// Deps collects service dependencies. Cache, Events and Metrics are optional.
type Deps struct {
	Sessions          SessionStore
	Stations          StationLookup
	Users             UserStatusUpdater
	Receipts          ReceiptExtractor
	Carbon            CarbonAccounting
	Cache             ActiveCache
	Events            events.Publisher
	Metrics           *metrics.Metrics
	Logger            *zap.Logger
	GeofenceTolerance float64
}

// SessionsService runs the charging session lifecycle.
type SessionsService struct {
	sessions  SessionStore
	stations  StationLookup
	users     UserStatusUpdater
	receipts  ReceiptExtractor
	carbon    CarbonAccounting
	cache     ActiveCache
	events    events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	tolerance float64
	now       func() time.Time
}

// StartInput is a request to begin charging.
type StartInput struct {
	UserID          int64
	StationID       string
	UserLat         float64
	UserLng         float64
	StartKWh        float64
	TargetKWh       float64
	ChargerCapacity float64
}

// FinalizeInput carries the values the user confirmed from the receipt.
type FinalizeInput struct {
	SessionID    int64
	UserID       int64
	ChargedKWh   float64
	Cost         int64
	DurationText string
}

// FinalizeResult is the completed session with its carbon savings.
type FinalizeResult struct {
	Session          *models.Session `json:"session"`
	CarbonSaved      float64         `json:"carbon_saved"`
	TotalCarbonSaved float64         `json:"total_carbon_saved"`
}

// NewSessionsService builds service.
func NewSessionsService(deps Deps) *SessionsService {
	pub := deps.Events
	if pub == nil {
		pub = events.NopPublisher{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionsService{
		sessions:  deps.Sessions,
		stations:  deps.Stations,
		users:     deps.Users,
		receipts:  deps.Receipts,
		carbon:    deps.Carbon,
		cache:     deps.Cache,
		events:    pub,
		metrics:   deps.Metrics,
		logger:    logger,
		tolerance: deps.GeofenceTolerance,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a CHARGING session when the user has none and stands within the station geofence.
func (s *SessionsService) Start(ctx context.Context, in StartInput) (*models.Session, error) {
	if err := validateStart(in); err != nil {
		return nil, err
	}

	active, err := s.sessions.ActiveByUser(ctx, in.UserID)
	switch {
	case err == nil && active != nil:
		return nil, ErrAlreadyCharging
	case err != nil && !errors.Is(err, repository.ErrSessionNotFound):
		return nil, fmt.Errorf("load active session: %w", err)
	}

	station, err := s.stations.GetStation(ctx, in.StationID)
	if errors.Is(err, repository.ErrStationNotFound) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load station: %w", err)
	}

	distance := geo.Distance(
		geo.Point{Lat: station.Lat, Lng: station.Lng},
		geo.Point{Lat: in.UserLat, Lng: in.UserLng},
	)
	if distance > s.tolerance {
		s.metrics.RecordGeofenceRejection()
		return nil, &GeofenceError{Distance: distance, Tolerance: s.tolerance}
	}

	session, err := s.sessions.CreateActive(ctx, &models.Session{
		UserID:          in.UserID,
		StationID:       station.ID,
		Status:          models.SessionStatusCharging,
		StartKWh:        in.StartKWh,
		TargetKWh:       in.TargetKWh,
		ChargerCapacity: in.ChargerCapacity,
		StartTime:       s.now(),
	})
	if errors.Is(err, repository.ErrActiveSessionExists) {
		return nil, ErrAlreadyCharging
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.setUserStatus(ctx, in.UserID, repository.UserStatusCharging)
	if s.cache != nil {
		if err := s.cache.Save(ctx, session); err != nil {
			s.logger.Warn("failed to cache active session", zap.Int64("session_id", session.ID), zap.Error(err))
		}
	}
	s.publish(ctx, events.TypeSessionStarted, session)
	s.metrics.RecordTransition("started")
	s.logger.Info("charging session started",
		zap.Int64("session_id", session.ID),
		zap.Int64("user_id", session.UserID),
		zap.String("station_id", session.StationID),
		zap.Float64("distance_m", distance),
	)
	return session, nil
}

func validateStart(in StartInput) error {
	if in.UserID <= 0 {
		return validationError("user id is required")
	}
	if in.StationID == "" {
		return validationError("station id is required")
	}
	if !(geo.Point{Lat: in.UserLat, Lng: in.UserLng}).Valid() {
		return validationError("user coordinates out of range")
	}
	for name, v := range map[string]float64{
		"start_kwh":        in.StartKWh,
		"target_kwh":       in.TargetKWh,
		"charger_capacity": in.ChargerCapacity,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return validationError("%s must be a non-negative number", name)
		}
	}
	return nil
}

// RequestReceiptParse reads a receipt for a CHARGING session. The session is not modified.
func (s *SessionsService) RequestReceiptParse(ctx context.Context, sessionID int64, image []byte, format string) (*receipt.Parsed, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Charging() {
		return nil, ErrInvalidState
	}
	if len(image) == 0 {
		return nil, validationError("receipt image is empty")
	}

	parsed, err := s.receipts.Extract(ctx, image, format)
	s.metrics.RecordReceiptParse(err == nil)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// Finalize completes a CHARGING session with the confirmed receipt values.
func (s *SessionsService) Finalize(ctx context.Context, in FinalizeInput) (*FinalizeResult, error) {
	if in.ChargedKWh < 0 || math.IsNaN(in.ChargedKWh) || math.IsInf(in.ChargedKWh, 0) {
		return nil, validationError("charged kwh must be a non-negative number")
	}
	if in.Cost < 0 {
		return nil, validationError("cost must be non-negative")
	}

	session, err := s.loadOwned(ctx, in.SessionID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !session.Charging() {
		return nil, ErrInvalidState
	}

	durationMin := receipt.ParseDurationMinutes(in.DurationText)
	endTime := s.now()
	if durationMin > 0 && !session.StartTime.IsZero() {
		endTime = session.StartTime.Add(time.Duration(math.Round(durationMin*60)) * time.Second)
	}

	completed, err := s.sessions.Complete(ctx, session.ID, models.Completion{
		ChargedKWh:  in.ChargedKWh,
		Cost:        in.Cost,
		EndTime:     endTime,
		DurationMin: durationMin,
	})
	if errors.Is(err, repository.ErrSessionNotCharging) {
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	saved, err := s.carbon.ComputeAndRecord(ctx, completed.ID, completed.UserID, in.ChargedKWh)
	if err != nil {
		s.logger.Warn("carbon accounting failed", zap.Int64("session_id", completed.ID), zap.Error(err))
		saved = 0
	}

	s.setUserStatus(ctx, completed.UserID, repository.UserStatusIdle)
	s.evict(ctx, completed.UserID)

	total, err := s.carbon.TotalSaved(ctx, completed.UserID)
	if err != nil {
		s.logger.Warn("failed to load career carbon total", zap.Int64("user_id", completed.UserID), zap.Error(err))
		total = saved
	}

	s.publish(ctx, events.TypeSessionCompleted, completed)
	s.metrics.RecordTransition("completed")
	s.metrics.AddCarbonSaved(saved)
	s.logger.Info("charging session finalized",
		zap.Int64("session_id", completed.ID),
		zap.Float64("charged_kwh", in.ChargedKWh),
		zap.Float64("carbon_saved", saved),
	)
	return &FinalizeResult{Session: completed, CarbonSaved: saved, TotalCarbonSaved: total}, nil
}

// Cancel deletes a CHARGING session owned by the user.
func (s *SessionsService) Cancel(ctx context.Context, sessionID, userID int64) error {
	session, err := s.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if !session.Charging() {
		return ErrInvalidState
	}

	if err := s.sessions.DeleteActive(ctx, session.ID); err != nil {
		if errors.Is(err, repository.ErrSessionNotCharging) {
			return ErrInvalidState
		}
		return fmt.Errorf("delete session: %w", err)
	}

	s.setUserStatus(ctx, userID, repository.UserStatusIdle)
	s.evict(ctx, userID)
	s.publish(ctx, events.TypeSessionCancelled, session)
	s.metrics.RecordTransition("cancelled")
	s.logger.Info("charging session cancelled", zap.Int64("session_id", session.ID), zap.Int64("user_id", userID))
	return nil
}

// History returns the user's sessions, newest first.
func (s *SessionsService) History(ctx context.Context, userID int64, limit int) ([]models.Session, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}
	return s.sessions.ListByUser(ctx, userID, limit)
}

// Active returns the user's CHARGING session, served from cache when possible.
// Only Start writes the cache; a miss here reads the database without repopulating,
// so a concurrent Finalize or Cancel cannot be overwritten by a stale row.
func (s *SessionsService) Active(ctx context.Context, userID int64) (*models.Session, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redisstore.ErrMiss) {
			s.logger.Warn("active session cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	session, err := s.sessions.ActiveByUser(ctx, userID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionsService) load(ctx context.Context, sessionID int64) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

func (s *SessionsService) loadOwned(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *SessionsService) setUserStatus(ctx context.Context, userID int64, status string) {
	if s.users == nil {
		return
	}
	if err := s.users.SetStatus(ctx, userID, status); err != nil {
		s.logger.Warn("failed to update user status",
			zap.Int64("user_id", userID), zap.String("status", status), zap.Error(err))
	}
}

func (s *SessionsService) evict(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("failed to delete active session cache", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *SessionsService) publish(ctx context.Context, eventType string, session *models.Session) {
	err := s.events.Publish(ctx, events.Event{
		Type:    eventType,
		Key:     fmt.Sprintf("%d", session.UserID),
		Payload: session,
	})
	if err != nil {
		s.logger.Warn("failed to publish session event", zap.String("type", eventType), zap.Error(err))
	}
}
