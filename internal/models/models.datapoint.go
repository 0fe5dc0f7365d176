// FilePath: internal/models/models.datapoint.go
package models

import "time"

// ActivityVector holds entering (x) and exiting (y) bee counts.
type ActivityVector struct {
	X float64 `json:"x" db:"x"`
	Y float64 `json:"y" db:"y"`
}

// Weather is the ambient weather snapshot attached to a datapoint.
type Weather struct {
	Temp      float64 `json:"temp" db:"temp"`
	Humidity  float64 `json:"humidity" db:"humidity"`
	Windspeed float64 `json:"windspeed" db:"windspeed"`
}

// Datapoint is one timestamped record in a device's series. Datapoints
// are append-only; they are never mutated or reordered and only go away
// when their device (or its apiary) is deleted.
type Datapoint struct {
	ID                      string         `json:"id" db:"id"`
	Serial                  string         `json:"serial" db:"serial"`
	Time                    time.Time      `json:"time" db:"time"`
	RawActivity             ActivityVector `json:"raw_activity" db:"raw_activity"`
	Weather                 Weather        `json:"weather" db:"weather"`
	PredictionActivity      ActivityVector `json:"prediction_activity" db:"prediction_activity"`
	LastPredictionDeviation float64        `json:"last_prediction_deviation" db:"last_prediction_deviation"`
}

// DeviceOverview is the derived status card for a single device:
// whether it is currently reporting, and its accumulated activity over
// the trailing 24 hours.
type DeviceOverview struct {
	DeviceID      string    `json:"device_id"`
	Serial        string    `json:"serial"`
	Online        bool      `json:"online"`
	LastSeen      time.Time `json:"last_seen,omitempty"`
	OfflineFor    string    `json:"offline_for,omitempty"`
	DailyEntering float64   `json:"daily_entering"`
	DailyExiting  float64   `json:"daily_exiting"`
}
