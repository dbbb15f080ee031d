package model

import "time"

// Shelter mirrors the `shelters` table. The Email column holds deterministic
// ciphertext when set; the importer finds its synthetic shelter by ciphertext
// equality, the same discipline used for user emails.
type Shelter struct {
	ID          string    // shelters.id
	Name        string    // shelters.name
	Address     string    // shelters.address
	Phone       *string   // shelters.phone (nullable)
	Email       *string   // shelters.email (ciphertext, nullable)
	Description *string   // shelters.description (nullable)
	OwnerID     string    // shelters.owner_id
	CreatedAt   time.Time // shelters.created_at
}
