package models

// Marker colours on the station map.
const (
	MarkerGreen = "GREEN"
	MarkerBlue  = "BLUE"
	MarkerGray  = "GRAY"
)

// StationMarker is a station with charger availability counts.
type StationMarker struct {
	StationID      string   `json:"station_id"`
	StationName    string   `json:"station_name"`
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	AvailableCount int      `json:"available_count"`
	TotalCount     int      `json:"total_count"`
	MarkerColor    string   `json:"marker_color"`
	DistanceM      *float64 `json:"distance_m,omitempty"`
}

// ChargerView is a charger with its display label and colour.
type ChargerView struct {
	Charger
	StatusLabel string `json:"status_label"`
	MarkerColor string `json:"marker_color"`
}

// StationDetail is a station with all of its chargers.
type StationDetail struct {
	Station
	Chargers []ChargerView `json:"chargers"`
}
