package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/smartshelter/api/internal/utils"
)

const (
	testCost = 4 // bcrypt.MinCost
	testMAC  = "AA:BB:CC:DD:EE:FF"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func dupKey(key string) *mysql.MySQLError {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key '" + key + "'"}
}

func userRow(t *testing.T, id, username, password string) *sqlmock.Rows {
	t.Helper()
	hash := ""
	if password != "" {
		var err error
		hash, err = utils.HashPassword(password, testCost)
		require.NoError(t, err)
	}
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "phone", "address", "created_at"}).
		AddRow(id, username, "cipher", hash, "user", nil, nil, time.Now())
}

func deviceRow(id, mac, owner string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "mac", "name", "location", "user_id", "registered_at", "last_seen_at"}).
		AddRow(id, mac, "ESP32", "Unknown", owner, time.Now(), nil)
}

func linkRow(id, mac, userID string, hash *string) *sqlmock.Rows {
	var hv interface{}
	if hash != nil {
		hv = *hash
	}
	return sqlmock.NewRows([]string{"id", "mac", "user_id", "api_key_hash", "created_at"}).
		AddRow(id, mac, userID, hv, time.Now())
}

func expectUserByUsername(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username=").WillReturnRows(rows)
}

// First contact: MAC is unknown, so the device and the link are created in one
// transaction and a raw key comes back exactly once.
func TestDeviceLogin_FirstContactIssuesKey(t *testing.T) {
	db, mock := newMock(t)
	svc := NewDeviceService(db, testCost)

	expectUserByUsername(mock, userRow(t, "u-1", "jane_doe", "Password1"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO devices").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=(.+) AND user_id=").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO device_users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Any accepted MAC shape resolves to the same canonical row.
	res, err := svc.Login(context.Background(), "aabbccddeeff", "jane_doe", "Password1")
	require.NoError(t, err)
	require.True(t, res.KeyIssued)
	require.Len(t, res.Key, 44)
	require.Equal(t, testMAC, res.MAC)
	require.NotEmpty(t, res.LinkID)
	require.NotEmpty(t, res.DeviceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Second login for an already-keyed pair: no key in the response, ever.
func TestDeviceLogin_SecondLoginWithholdsKey(t *testing.T) {
	db, mock := newMock(t)
	svc := NewDeviceService(db, testCost)

	hash := "$2a$04$existinghashexistinghashexistingha"
	expectUserByUsername(mock, userRow(t, "u-1", "jane_doe", "Password1"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnRows(deviceRow("d-1", testMAC, "u-1"))
	mock.ExpectExec("UPDATE devices SET last_seen_at=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=(.+) AND user_id=").
		WillReturnRows(linkRow("l-1", testMAC, "u-1", &hash))
	mock.ExpectCommit()

	res, err := svc.Login(context.Background(), testMAC, "jane_doe", "Password1")
	require.NoError(t, err)
	require.False(t, res.KeyIssued)
	require.Empty(t, res.Key)
	require.Equal(t, "l-1", res.LinkID)
	require.Equal(t, "d-1", res.DeviceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A cleared (or never set) key hash on an existing link gets a fresh key.
func TestDeviceLogin_RekeysUnkeyedLink(t *testing.T) {
	db, mock := newMock(t)
	svc := NewDeviceService(db, testCost)

	expectUserByUsername(mock, userRow(t, "u-1", "jane_doe", "Password1"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnRows(deviceRow("d-1", testMAC, "u-1"))
	mock.ExpectExec("UPDATE devices SET last_seen_at=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=(.+) AND user_id=").
		WillReturnRows(linkRow("l-1", testMAC, "u-1", nil))
	mock.ExpectExec("UPDATE device_users SET api_key_hash=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Login(context.Background(), testMAC, "jane_doe", "Password1")
	require.NoError(t, err)
	require.True(t, res.KeyIssued)
	require.NotEmpty(t, res.Key)
	require.NoError(t, mock.ExpectationsWereMet())
}

// The guarded update lost to a concurrent login: our raw key is discarded and
// the caller is told no key was issued.
func TestDeviceLogin_LostRekeyRace(t *testing.T) {
	db, mock := newMock(t)
	svc := NewDeviceService(db, testCost)

	expectUserByUsername(mock, userRow(t, "u-1", "jane_doe", "Password1"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnRows(deviceRow("d-1", testMAC, "u-1"))
	mock.ExpectExec("UPDATE devices SET last_seen_at=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=(.+) AND user_id=").
		WillReturnRows(linkRow("l-1", testMAC, "u-1", nil))
	mock.ExpectExec("UPDATE device_users SET api_key_hash=").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := svc.Login(context.Background(), testMAC, "jane_doe", "Password1")
	require.NoError(t, err)
	require.False(t, res.KeyIssued)
	require.Empty(t, res.Key)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Two concurrent first-time logins race on both inserts; the loser re-reads
// the winner's rows and ends with the same single device, single link and, in
// this interleaving, no second key.
func TestDeviceLogin_DuplicateKeyRaceConverges(t *testing.T) {
	db, mock := newMock(t)
	svc := NewDeviceService(db, testCost)

	winnerHash := "$2a$04$winnerhashwinnerhashwinnerhashwinn"
	expectUserByUsername(mock, userRow(t, "u-1", "jane_doe", "Password1"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO devices").WillReturnError(dupKey("uq_devices_mac"))
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnRows(deviceRow("d-1", testMAC, "u-1"))
	mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=(.+) AND user_id=").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO device_users").WillReturnError(dupKey("uq_device_users_mac_user"))
	mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=(.+) AND user_id=").
		WillReturnRows(linkRow("l-1", testMAC, "u-1", &winnerHash))
	mock.ExpectCommit()

	res, err := svc.Login(context.Background(), testMAC, "jane_doe", "Password1")
	require.NoError(t, err)
	require.False(t, res.KeyIssued)
	require.Empty(t, res.Key)
	require.Equal(t, "l-1", res.LinkID)
	require.Equal(t, "d-1", res.DeviceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A device owned by another account rejects the login and mutates nothing.
func TestDeviceLogin_OwnershipConflict(t *testing.T) {
	db, mock := newMock(t)
	svc := NewDeviceService(db, testCost)

	expectUserByUsername(mock, userRow(t, "u-2", "other_user", "Password1"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnRows(deviceRow("d-1", testMAC, "u-1"))
	mock.ExpectExec("UPDATE devices SET last_seen_at=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	_, err := svc.Login(context.Background(), testMAC, "other_user", "Password1")
	require.ErrorIs(t, err, ErrDeviceOwned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceLogin_InvalidCredentials(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMock(t)
		svc := NewDeviceService(db, testCost)
		mock.ExpectQuery("SELECT (.+) FROM users WHERE username=").WillReturnError(sql.ErrNoRows)

		_, err := svc.Login(context.Background(), testMAC, "nobody", "Password1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		db, mock := newMock(t)
		svc := NewDeviceService(db, testCost)
		expectUserByUsername(mock, userRow(t, "u-1", "jane_doe", "Password1"))

		_, err := svc.Login(context.Background(), testMAC, "jane_doe", "WrongPassword1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty stored hash never authenticates", func(t *testing.T) {
		db, mock := newMock(t)
		svc := NewDeviceService(db, testCost)
		expectUserByUsername(mock, userRow(t, "u-sys", "import_bot", ""))

		_, err := svc.Login(context.Background(), testMAC, "import_bot", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestDeviceLogin_InvalidMAC(t *testing.T) {
	db, _ := newMock(t)
	svc := NewDeviceService(db, testCost)

	// Rejected before any lookup: no expectations registered on the mock.
	_, err := svc.Login(context.Background(), "aa:bb:cc", "jane_doe", "Password1")
	require.ErrorIs(t, err, utils.ErrInvalidMAC)
}

func TestEnroll_IssuesKey(t *testing.T) {
	db, mock := newMock(t)
	svc := NewDeviceService(db, testCost)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").WillReturnRows(userRow(t, "u-1", "jane_doe", "Password1"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO devices").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=(.+) AND user_id=").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO device_users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Enroll(context.Background(), "u-1", "aa-bb-cc-dd-ee-ff")
	require.NoError(t, err)
	require.NotEmpty(t, res.LinkID)
	require.Len(t, res.Key, 44)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnroll_SecondCallConflicts(t *testing.T) {
	db, mock := newMock(t)
	svc := NewDeviceService(db, testCost)

	hash := "$2a$04$existinghashexistinghashexistingha"
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").WillReturnRows(userRow(t, "u-1", "jane_doe", "Password1"))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnRows(deviceRow("d-1", testMAC, "u-1"))
	mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=(.+) AND user_id=").
		WillReturnRows(linkRow("l-1", testMAC, "u-1", &hash))
	mock.ExpectRollback()

	_, err := svc.Enroll(context.Background(), "u-1", testMAC)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnroll_UnknownAccount(t *testing.T) {
	db, mock := newMock(t)
	svc := NewDeviceService(db, testCost)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").WillReturnError(sql.ErrNoRows)

	_, err := svc.Enroll(context.Background(), "missing", testMAC)
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestAuthenticate(t *testing.T) {
	raw, err := utils.NewDeviceKey()
	require.NoError(t, err)
	hash, err := utils.HashDeviceKey(raw, testCost)
	require.NoError(t, err)

	t.Run("matching key", func(t *testing.T) {
		db, mock := newMock(t)
		svc := NewDeviceService(db, testCost)

		mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnRows(deviceRow("d-1", testMAC, "u-1"))
		mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=").
			WillReturnRows(linkRow("l-1", testMAC, "u-1", &hash))

		link, device, err := svc.Authenticate(context.Background(), testMAC, raw)
		require.NoError(t, err)
		require.Equal(t, "l-1", link.ID)
		require.Equal(t, "d-1", device.ID)
	})

	t.Run("wrong key", func(t *testing.T) {
		db, mock := newMock(t)
		svc := NewDeviceService(db, testCost)

		mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnRows(deviceRow("d-1", testMAC, "u-1"))
		mock.ExpectQuery("SELECT (.+) FROM device_users WHERE mac=").
			WillReturnRows(linkRow("l-1", testMAC, "u-1", &hash))

		_, _, err := svc.Authenticate(context.Background(), testMAC, "bogus")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown device", func(t *testing.T) {
		db, mock := newMock(t)
		svc := NewDeviceService(db, testCost)

		mock.ExpectQuery("SELECT (.+) FROM devices WHERE mac=").WillReturnError(sql.ErrNoRows)

		_, _, err := svc.Authenticate(context.Background(), testMAC, raw)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
