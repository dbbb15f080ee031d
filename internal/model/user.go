package model

import "time"

// Role names accepted in users.role and carried in the JWT role claim.
const (
	RoleAdmin        = "admin"
	RoleShelterOwner = "shelter_owner"
	RoleUser         = "user"
)

// User represents an application user record as stored in the `users` table.
// Email and Phone hold ciphertext, never plaintext: both columns are encrypted
// with the deterministic PII cipher so that equality lookups ("does this email
// already exist?") keep working against the stored value. Handlers define
// separate response types with JSON tags; this struct is repository-internal.
//
// Fields:
//
//	ID           – opaque 128-bit identifier (UUID string).
//	Username     – unique login / display name.
//	Email        – unique, deterministic ciphertext of the address.
//	PasswordHash – bcrypt hash.
//	Role         – admin | shelter_owner | user.
//	Phone        – optional ciphertext of the phone number.
//	Address      – optional free-form address (not PII-classified here).
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           string     // users.id
	Username     string     // users.username
	Email        string     // users.email (ciphertext)
	PasswordHash string     // users.password_hash
	Role         string     // users.role
	Phone        *string    // users.phone (ciphertext, nullable)
	Address      *string    // users.address (nullable)
	CreatedAt    time.Time  // users.created_at
}
