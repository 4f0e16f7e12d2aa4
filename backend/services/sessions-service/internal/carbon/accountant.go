// Package carbon computes and records the CO2 a charging session saved against a gasoline car.
package carbon

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"evcharge/backend/services/sessions-service/internal/models"
	"evcharge/backend/services/sessions-service/internal/repository"
)

// ErrConfigMissing is returned when no emission constants exist.
var ErrConfigMissing = errors.New("carbon config missing")

// Store persists carbon configs and records.
type Store interface {
	LatestConfig(ctx context.Context) (*models.CarbonConfig, error)
	SaveRecord(ctx context.Context, rec *models.CarbonRecord) error
	TotalByUser(ctx context.Context, userID int64) (float64, error)
}

// VehicleCatalog resolves a user's vehicle efficiency in km/kWh.
type VehicleCatalog interface {
	EfficiencyForUser(ctx context.Context, userID int64) (float64, bool, error)
}

// Accountant computes saved carbon per session.
type Accountant struct {
	store             Store
	vehicles          VehicleCatalog
	defaultEfficiency float64
	logger            *zap.Logger
}

// NewAccountant builds accountant. defaultEfficiency applies when the user has no vehicle efficiency.
func NewAccountant(store Store, vehicles VehicleCatalog, defaultEfficiency float64, logger *zap.Logger) *Accountant {
	return &Accountant{
		store:             store,
		vehicles:          vehicles,
		defaultEfficiency: defaultEfficiency,
		logger:            logger,
	}
}

// Saved returns kg of CO2 avoided by driving kWh of electricity instead of gasoline.
// Distance = kWh*efficiency, fuel = distance/avgFuelEfficiency.
func Saved(kwh, efficiency float64, cfg models.CarbonConfig) float64 {
	if cfg.AvgFuelEfficiency <= 0 {
		return 0
	}
	gasoline := (kwh * efficiency / cfg.AvgFuelEfficiency) * cfg.GasolineCO2PerL
	electric := kwh * cfg.EVCO2PerKWh
	return gasoline - electric
}

// ComputeAndRecord computes and stores the carbon saved by a completed session.
func (a *Accountant) ComputeAndRecord(ctx context.Context, sessionID, userID int64, chargedKWh float64) (float64, error) {
	cfg, err := a.store.LatestConfig(ctx)
	if errors.Is(err, repository.ErrCarbonConfigNotFound) {
		return 0, ErrConfigMissing
	}
	if err != nil {
		return 0, fmt.Errorf("carbon: load config: %w", err)
	}

	efficiency := a.defaultEfficiency
	eff, ok, err := a.vehicles.EfficiencyForUser(ctx, userID)
	switch {
	case err != nil:
		a.logger.Warn("vehicle efficiency lookup failed, using default",
			zap.Int64("user_id", userID), zap.Error(err))
	case ok:
		efficiency = eff
	}

	saved := Saved(chargedKWh, efficiency, *cfg)
	rec := &models.CarbonRecord{SessionID: sessionID, UserID: userID, CarbonSaved: saved}
	if err := a.store.SaveRecord(ctx, rec); err != nil {
		return 0, fmt.Errorf("carbon: save record: %w", err)
	}
	return saved, nil
}

// TotalSaved returns the user's career carbon savings.
func (a *Accountant) TotalSaved(ctx context.Context, userID int64) (float64, error) {
	return a.store.TotalByUser(ctx, userID)
}
