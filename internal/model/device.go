package model

import "time"

// Device is a physical sensor unit identified by its canonical MAC address
// (12 hex digits, upper-case, colon-grouped). At most one row exists per MAC;
// UserID is the owning account, set when the device first authenticates and
// immutable afterwards. Additional accounts gain access through DeviceUser
// links, not by changing the owner.
//
// Fields:
//
//	ID           – opaque identifier (UUID string).
//	MAC          – canonical MAC address, unique.
//	Name         – display name.
//	Location     – free-form placement description.
//	UserID       – owning account, immutable once set.
//	RegisteredAt – first contact timestamp.
//	LastSeenAt   – updated on every successful device login / measurement.
type Device struct {
	ID           string     // devices.id
	MAC          string     // devices.mac
	Name         string     // devices.name
	Location     string     // devices.location
	UserID       string     // devices.user_id
	RegisteredAt time.Time  // devices.registered_at
	LastSeenAt   *time.Time // devices.last_seen_at (nullable)
}

// DeviceUser is the device<->account join row granting one account an API key
// for one device. At most one row exists per (MAC, user). APIKeyHash stores a
// bcrypt hash of the issued key; the raw key leaves the server exactly once,
// in the response that issued it, and can never be redisplayed.
//
// Fields:
//
//	ID         – opaque identifier (UUID string).
//	MAC        – canonical MAC of the linked device.
//	UserID     – linked account.
//	APIKeyHash – bcrypt hash of the per-link API key (nil until issued).
//	CreatedAt  – timestamp of creation.
type DeviceUser struct {
	ID         string    // device_users.id
	MAC        string    // device_users.mac
	UserID     string    // device_users.user_id
	APIKeyHash *string   // device_users.api_key_hash (nullable)
	CreatedAt  time.Time // device_users.created_at
}
