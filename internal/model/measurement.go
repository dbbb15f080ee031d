package model

import "time"

// Measurement is one environmental reading reported by a device. Rows are
// attributed both to the device (by MAC) and to the account under whose
// DeviceUser link the reading was authenticated.
type Measurement struct {
	ID           string    // measurements.id
	MAC          string    // measurements.mac
	Temperature  float64   // measurements.temperature (°C)
	CO2          float64   // measurements.co2 (ppm)
	Humidity     float64   // measurements.humidity (%)
	Ammonia      *float64  // measurements.ammonia (ppm, nullable)
	VOC          *float64  // measurements.voc (mg/m³, nullable)
	UserID       string    // measurements.user_id
	DeviceUserID string    // measurements.device_user_id
	RecordedAt   time.Time // measurements.recorded_at
}
