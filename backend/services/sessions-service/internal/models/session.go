package models

import "time"

// Session status values.
const (
	SessionStatusCharging  = "CHARGING"
	SessionStatusCompleted = "COMPLETED"
)

// Session represents a charging session. Completion fields stay nil while charging.
type Session struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	StationID       string     `db:"station_id" json:"station_id"`
	Status          string     `db:"status" json:"status"`
	StartKWh        float64    `db:"start_kwh" json:"start_kwh"`
	TargetKWh       float64    `db:"target_kwh" json:"target_kwh"`
	ChargedKWh      *float64   `db:"charged_kwh" json:"charged_kwh,omitempty"`
	ChargerCapacity float64    `db:"charger_capacity" json:"charger_capacity"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         *time.Time `db:"end_time" json:"end_time,omitempty"`
	DurationMin     *float64   `db:"duration_min" json:"duration_min,omitempty"`
	Cost            *int64     `db:"cost" json:"cost,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Charging reports whether the session is still active.
func (s *Session) Charging() bool {
	return s.Status == SessionStatusCharging
}

// Completion holds the values written when a session is finalized.
type Completion struct {
	ChargedKWh  float64
	Cost        int64
	EndTime     time.Time
	DurationMin float64
}
