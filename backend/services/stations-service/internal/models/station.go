package models

import "time"

// Charger status values after normalization.
const (
	ChargerAvailable  = "available"
	ChargerInUse      = "in_use"
	ChargerInspecting = "inspecting"
	ChargerFault      = "fault"
)

// Power classes.
const (
	PowerFast    = "fast"
	PowerSlow    = "slow"
	PowerUnknown = "unknown"
)

// ConnectorUnknown labels charger type codes outside the provider table.
const ConnectorUnknown = "unknown"

// Station is a charging site.
type Station struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	Lat       float64   `db:"lat" json:"lat"`
	Lng       float64   `db:"lng" json:"lng"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Charger is one charging unit of a station. ID is stationID + "_" + ProviderChargerID.
type Charger struct {
	ID                string    `db:"id" json:"id"`
	StationID         string    `db:"station_id" json:"station_id"`
	ProviderChargerID string    `db:"provider_charger_id" json:"provider_charger_id"`
	Name              string    `db:"name" json:"name"`
	Status            string    `db:"status" json:"status"`
	PowerClass        string    `db:"power_class" json:"power_class"`
	ConnectorType     string    `db:"connector_type" json:"connector_type"`
	StatusUpdatedAt   string    `db:"status_updated_at" json:"status_updated_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
