// Package queue defines message payloads exchanged over the message broker.
package queue

// MeasurementRecordedEvent is published after a device-authenticated
// measurement is stored. It carries enough for downstream consumers to log or
// alert without querying the primary database. MAC only, never keys.
type MeasurementRecordedEvent struct {
	MeasurementID string   `json:"measurement_id"`
	MAC           string   `json:"mac"`
	DeviceID      string   `json:"device_id"`
	UserID        string   `json:"user_id"`
	Temperature   *float64 `json:"temperature,omitempty"`
	CO2           *float64 `json:"co2,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty"`
	RecordedAt    string   `json:"recorded_at"`
}

// PetsImportedEvent is published at the end of each import cycle.
type PetsImportedEvent struct {
	ShelterID  string `json:"shelter_id"`
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
	FinishedAt string `json:"finished_at"`
}
