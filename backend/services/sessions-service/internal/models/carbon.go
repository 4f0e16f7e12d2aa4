package models

import "time"

// CarbonConfig holds the emission constants used for carbon accounting.
type CarbonConfig struct {
	ID                int64     `db:"id" json:"id"`
	GasolineCO2PerL   float64   `db:"gasoline_co2_per_l" json:"gasoline_co2_per_l"`
	AvgFuelEfficiency float64   `db:"avg_fuel_efficiency" json:"avg_fuel_efficiency"`
	EVCO2PerKWh       float64   `db:"ev_co2_per_kwh" json:"ev_co2_per_kwh"`
	ConfigVersion     string    `db:"config_version" json:"config_version"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// CarbonRecord is the carbon saved by one completed session.
type CarbonRecord struct {
	ID          int64     `db:"id" json:"id"`
	SessionID   int64     `db:"session_id" json:"session_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	CarbonSaved float64   `db:"carbon_saved" json:"carbon_saved"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
