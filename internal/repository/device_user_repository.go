package repository

import (
	"context"

	"github.com/smartshelter/api/internal/dbx"
	"github.com/smartshelter/api/internal/model"
)

// DeviceUserRepo persists device<->account links. The unique key on
// (mac, user_id) guarantees at most one link per pair; api_key_hash only ever
// transitions from empty to set through SetAPIKeyHash, so a key hash is
// persisted at most once per credential generation even under concurrent
// logins.
type DeviceUserRepo struct{ db dbx.DBTX }

func NewDeviceUserRepo(db dbx.DBTX) *DeviceUserRepo { return &DeviceUserRepo{db: db} }

const deviceUserColumns = "id, mac, user_id, api_key_hash, created_at"

// Create inserts a link row. A duplicate (mac, user_id) maps to ErrLinkExists.
func (r *DeviceUserRepo) Create(ctx context.Context, l *model.DeviceUser) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO device_users (id, mac, user_id, api_key_hash) VALUES (?,?,?,?)",
		l.ID, l.MAC, l.UserID, l.APIKeyHash)
	if isDuplicate(err, "uq_device_users_mac_user") {
		return ErrLinkExists
	}
	return err
}

// GetByMACAndUser fetches the link for one (mac, account) pair. Returns
// sql.ErrNoRows when absent.
func (r *DeviceUserRepo) GetByMACAndUser(ctx context.Context, mac, userID string) (model.DeviceUser, error) {
	var l model.DeviceUser
	err := r.db.QueryRowContext(ctx,
		"SELECT "+deviceUserColumns+" FROM device_users WHERE mac=? AND user_id=? LIMIT 1",
		mac, userID).Scan(&l.ID, &l.MAC, &l.UserID, &l.APIKeyHash, &l.CreatedAt)
	return l, err
}

// ListByMAC returns every link for one device, across all linked accounts.
func (r *DeviceUserRepo) ListByMAC(ctx context.Context, mac string) ([]model.DeviceUser, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+deviceUserColumns+" FROM device_users WHERE mac=?", mac)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []model.DeviceUser
	for rows.Next() {
		var l model.DeviceUser
		if err := rows.Scan(&l.ID, &l.MAC, &l.UserID, &l.APIKeyHash, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// SetAPIKeyHash stores a key hash on a link that does not have one yet. It
// reports whether the update won: false means a concurrent request already
// persisted a hash, in which case the caller must NOT hand out its raw key.
func (r *DeviceUserRepo) SetAPIKeyHash(ctx context.Context, id, hash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE device_users SET api_key_hash=? WHERE id=? AND (api_key_hash IS NULL OR api_key_hash='')",
		hash, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
