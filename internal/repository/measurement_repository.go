package repository

import (
	"context"

	"github.com/smartshelter/api/internal/dbx"
	"github.com/smartshelter/api/internal/model"
)

// MeasurementRepo persists sensor readings.
type MeasurementRepo struct{ db dbx.DBTX }

func NewMeasurementRepo(db dbx.DBTX) *MeasurementRepo { return &MeasurementRepo{db: db} }

// Create inserts one reading.
func (r *MeasurementRepo) Create(ctx context.Context, m *model.Measurement) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO measurements (id, mac, temperature, co2, humidity, ammonia, voc, user_id, device_user_id) VALUES (?,?,?,?,?,?,?,?,?)",
		m.ID, m.MAC, m.Temperature, m.CO2, m.Humidity, m.Ammonia, m.VOC, m.UserID, m.DeviceUserID)
	return err
}
