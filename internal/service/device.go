package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/smartshelter/api/internal/dbx"
	"github.com/smartshelter/api/internal/model"
	"github.com/smartshelter/api/internal/repository"
	"github.com/smartshelter/api/internal/utils"
)

// Defaults applied when a device row is created on first contact.
const (
	loginDeviceName  = "ESP32"
	enrollDeviceName = "Auto-registered device"
	deviceLocation   = "Unknown"
)

// DeviceService runs the device provisioning state machine. Per (MAC, account)
// pair the states are: no device -> device registered (unlinked) -> linked
// without key -> linked with key. Keys move forward only; once a key hash is
// persisted the raw key can never be recovered, only a fresh one issued after
// an operator clears the hash.
//
// Every check-then-write sequence runs inside a transaction at READ COMMITTED
// so that a duplicate-key loss can be followed by a re-read that sees the
// winner's committed row.
type DeviceService struct {
	db         *sql.DB
	bcryptCost int
}

func NewDeviceService(db *sql.DB, bcryptCost int) *DeviceService {
	return &DeviceService{db: db, bcryptCost: bcryptCost}
}

// DeviceLoginResult reports the outcome of a device login. Key carries the raw API
// key ONLY when KeyIssued is true; this response is the single moment the
// raw key exists outside the client; it is never stored or logged.
type DeviceLoginResult struct {
	LinkID    string
	DeviceID  string
	MAC       string
	Key       string
	KeyIssued bool
}

// EnrollResult reports a successful administrative enrollment, which always
// carries a freshly issued raw key.
type EnrollResult struct {
	LinkID string
	Key    string
}

var txOpts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// Login is the device bootstrap path: a device presents its MAC together with
// its owner's account credentials.
//
//  1. The MAC is canonicalized (utils.ErrInvalidMAC before any lookup).
//  2. Credentials are verified; unknown user and wrong password both return
//     ErrInvalidCredentials.
//  3. The device row is found or created, owned by this account. A device
//     owned by a different account is ErrDeviceOwned; owners are immutable.
//  4. The link row is found or created; a link without a key hash gets a new
//     256-bit key whose hash is persisted, and the raw key is returned once
//     with KeyIssued=true. A link that already has a hash returns
//     KeyIssued=false with no key.
//
// Retrying the same call is idempotent with respect to the final state. Known
// limitation: if the issuing response is lost after commit, the key is gone;
// the retry reports KeyIssued=false and re-issue is an operator action.
func (s *DeviceService) Login(ctx context.Context, rawMAC, username, password string) (DeviceLoginResult, error) {
	mac, err := utils.NormalizeMAC(rawMAC)
	if err != nil {
		return DeviceLoginResult{}, err
	}

	u, err := repository.NewUserRepo(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DeviceLoginResult{}, ErrInvalidCredentials
		}
		return DeviceLoginResult{}, err
	}
	if u.PasswordHash == "" || !utils.VerifyPassword(u.PasswordHash, password) {
		return DeviceLoginResult{}, ErrInvalidCredentials
	}

	var res DeviceLoginResult
	err = dbx.WithTx(ctx, s.db, txOpts, func(ctx context.Context, tx dbx.DBTX) error {
		device, err := s.ensureDevice(ctx, tx, mac, u.ID, loginDeviceName, true)
		if err != nil {
			return err
		}
		if device.UserID != u.ID {
			return ErrDeviceOwned
		}

		links := repository.NewDeviceUserRepo(tx)
		link, err := links.GetByMACAndUser(ctx, mac, u.ID)
		if errors.Is(err, sql.ErrNoRows) {
			raw, hash, genErr := s.newKey()
			if genErr != nil {
				return genErr
			}
			link = model.DeviceUser{ID: uuid.NewString(), MAC: mac, UserID: u.ID, APIKeyHash: &hash}
			createErr := links.Create(ctx, &link)
			if createErr == nil {
				res = DeviceLoginResult{LinkID: link.ID, DeviceID: device.ID, MAC: mac, Key: raw, KeyIssued: true}
				return nil
			}
			if !errors.Is(createErr, repository.ErrLinkExists) {
				return createErr
			}
			// Lost the race to a concurrent login; use the winner's row and
			// throw our unpersisted key away.
			link, err = links.GetByMACAndUser(ctx, mac, u.ID)
			if err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if link.APIKeyHash != nil && *link.APIKeyHash != "" {
			res = DeviceLoginResult{LinkID: link.ID, DeviceID: device.ID, MAC: mac, KeyIssued: false}
			return nil
		}

		// Link exists but was never keyed (e.g. the hash was cleared by an
		// operator). Issue a fresh key; the guarded update loses to at most
		// one concurrent winner.
		raw, hash, err := s.newKey()
		if err != nil {
			return err
		}
		won, err := links.SetAPIKeyHash(ctx, link.ID, hash)
		if err != nil {
			return err
		}
		if !won {
			res = DeviceLoginResult{LinkID: link.ID, DeviceID: device.ID, MAC: mac, KeyIssued: false}
			return nil
		}
		res = DeviceLoginResult{LinkID: link.ID, DeviceID: device.ID, MAC: mac, Key: raw, KeyIssued: true}
		return nil
	})
	if err != nil {
		return DeviceLoginResult{}, err
	}
	return res, nil
}

// Enroll is the administrative pre-provisioning path: it binds a MAC to a
// target account without that account's password and always issues a key.
// A pre-existing link for the pair is ErrAlreadyEnrolled, never a silent
// no-op and never a key re-display.
func (s *DeviceService) Enroll(ctx context.Context, targetUserID, rawMAC string) (EnrollResult, error) {
	mac, err := utils.NormalizeMAC(rawMAC)
	if err != nil {
		return EnrollResult{}, err
	}
	if _, err := repository.NewUserRepo(s.db).GetByID(ctx, targetUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EnrollResult{}, ErrUnknownAccount
		}
		return EnrollResult{}, err
	}

	var res EnrollResult
	err = dbx.WithTx(ctx, s.db, txOpts, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.ensureDevice(ctx, tx, mac, targetUserID, enrollDeviceName, false); err != nil {
			return err
		}

		links := repository.NewDeviceUserRepo(tx)
		if _, err := links.GetByMACAndUser(ctx, mac, targetUserID); err == nil {
			return ErrAlreadyEnrolled
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		raw, hash, err := s.newKey()
		if err != nil {
			return err
		}
		link := model.DeviceUser{ID: uuid.NewString(), MAC: mac, UserID: targetUserID, APIKeyHash: &hash}
		if err := links.Create(ctx, &link); err != nil {
			if errors.Is(err, repository.ErrLinkExists) {
				return ErrAlreadyEnrolled
			}
			return err
		}
		res = EnrollResult{LinkID: link.ID, Key: raw}
		return nil
	})
	if err != nil {
		return EnrollResult{}, err
	}
	return res, nil
}

// Authenticate validates a device-presented (MAC, raw key) pair against the
// stored hashes for that MAC and returns the matching link. Used by the
// measurement ingest endpoint. Any mismatch is ErrInvalidCredentials.
func (s *DeviceService) Authenticate(ctx context.Context, rawMAC, rawKey string) (model.DeviceUser, model.Device, error) {
	mac, err := utils.NormalizeMAC(rawMAC)
	if err != nil {
		return model.DeviceUser{}, model.Device{}, err
	}
	if rawKey == "" {
		return model.DeviceUser{}, model.Device{}, ErrInvalidCredentials
	}
	device, err := repository.NewDeviceRepo(s.db).GetByMAC(ctx, mac)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DeviceUser{}, model.Device{}, ErrInvalidCredentials
		}
		return model.DeviceUser{}, model.Device{}, err
	}
	links, err := repository.NewDeviceUserRepo(s.db).ListByMAC(ctx, mac)
	if err != nil {
		return model.DeviceUser{}, model.Device{}, err
	}
	for _, l := range links {
		if l.APIKeyHash != nil && utils.VerifyDeviceKey(*l.APIKeyHash, rawKey) {
			return l, device, nil
		}
	}
	return model.DeviceUser{}, model.Device{}, ErrInvalidCredentials
}

// TouchLastSeen records device liveness outside the provisioning flow.
func (s *DeviceService) TouchLastSeen(ctx context.Context, mac string) error {
	return repository.NewDeviceRepo(s.db).TouchLastSeen(ctx, mac, time.Now().UTC())
}

// ensureDevice finds the device row for mac or creates it owned by ownerID,
// re-reading if a concurrent request creates it first. touch controls whether
// an already-present row gets its last-seen timestamp refreshed.
func (s *DeviceService) ensureDevice(ctx context.Context, tx dbx.DBTX, mac, ownerID, name string, touch bool) (model.Device, error) {
	devices := repository.NewDeviceRepo(tx)
	now := time.Now().UTC()

	device, err := devices.GetByMAC(ctx, mac)
	if err == nil {
		if touch {
			if terr := devices.TouchLastSeen(ctx, mac, now); terr != nil {
				return model.Device{}, terr
			}
			device.LastSeenAt = &now
		}
		return device, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Device{}, err
	}

	device = model.Device{
		ID:       uuid.NewString(),
		MAC:      mac,
		Name:     name,
		Location: deviceLocation,
		UserID:   ownerID,
	}
	if touch {
		device.LastSeenAt = &now
	}
	createErr := devices.Create(ctx, &device)
	if createErr == nil {
		return device, nil
	}
	if errors.Is(createErr, repository.ErrDeviceExists) {
		// Someone else registered it between our read and write.
		return devices.GetByMAC(ctx, mac)
	}
	return model.Device{}, createErr
}

func (s *DeviceService) newKey() (raw, hash string, err error) {
	raw, err = utils.NewDeviceKey()
	if err != nil {
		return "", "", err
	}
	hash, err = utils.HashDeviceKey(raw, s.bcryptCost)
	if err != nil {
		return "", "", err
	}
	return raw, hash, nil
}
