package models

// Station is the subset of catalog data needed for geofencing.
type Station struct {
	ID      string  `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Address string  `db:"address" json:"address"`
	Lat     float64 `db:"lat" json:"lat"`
	Lng     float64 `db:"lng" json:"lng"`
}
