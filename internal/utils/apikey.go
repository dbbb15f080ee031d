package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// apiKeyBytes is the entropy of a device API key. 32 bytes = 256 bits,
// base64-encoded to 44 characters on the wire.
const apiKeyBytes = 32

// NewDeviceKey generates the raw per-link API key returned to a device
// exactly once at issuance. Only its bcrypt hash is ever persisted; the
// server cannot recover or redisplay the raw value afterwards.
func NewDeviceKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// HashDeviceKey hashes a raw device key for storage. Device keys go through
// the same adaptive one-way hash as passwords.
func HashDeviceKey(raw string, cost int) (string, error) {
	return HashPassword(raw, cost)
}

// VerifyDeviceKey compares a presented raw key against a stored hash.
func VerifyDeviceKey(hash, raw string) bool {
	return VerifyPassword(hash, raw)
}
