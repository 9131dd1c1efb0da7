package models

// Telemetry is a live hardware reading.
type Telemetry struct {
	BatteryPercent float64 `json:"battery_percent"`
	Voltage        float64 `json:"voltage"`
	Current        float64 `json:"current"`
	Power          float64 `json:"power"`
}
