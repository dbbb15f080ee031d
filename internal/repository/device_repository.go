package repository

import (
	"context"
	"time"

	"github.com/smartshelter/api/internal/dbx"
	"github.com/smartshelter/api/internal/model"
)

// DeviceRepo persists device rows keyed by canonical MAC. Callers must
// normalize MAC addresses before reaching this layer; the unique key on
// devices.mac is the source of truth for "at most one row per MAC".
type DeviceRepo struct{ db dbx.DBTX }

func NewDeviceRepo(db dbx.DBTX) *DeviceRepo { return &DeviceRepo{db: db} }

const deviceColumns = "id, mac, name, location, user_id, registered_at, last_seen_at"

// Create inserts a device. A duplicate MAC maps to ErrDeviceExists, which
// provisioning treats as "another request registered it first" and re-reads.
func (r *DeviceRepo) Create(ctx context.Context, d *model.Device) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO devices (id, mac, name, location, user_id, last_seen_at) VALUES (?,?,?,?,?,?)",
		d.ID, d.MAC, d.Name, d.Location, d.UserID, d.LastSeenAt)
	if isDuplicate(err, "uq_devices_mac") {
		return ErrDeviceExists
	}
	return err
}

// GetByMAC fetches a device by canonical MAC. Returns sql.ErrNoRows when absent.
func (r *DeviceRepo) GetByMAC(ctx context.Context, mac string) (model.Device, error) {
	var d model.Device
	err := r.db.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE mac=? LIMIT 1", mac).Scan(
		&d.ID, &d.MAC, &d.Name, &d.Location, &d.UserID, &d.RegisteredAt, &d.LastSeenAt)
	return d, err
}

// TouchLastSeen records device liveness.
func (r *DeviceRepo) TouchLastSeen(ctx context.Context, mac string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE devices SET last_seen_at=? WHERE mac=?", at, mac)
	return err
}
