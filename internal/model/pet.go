package model

import "time"

// Pet mirrors the `pets` table. Only the importer writes pets; ExternalURL is
// unique and doubles as the dedupe key across import runs.
type Pet struct {
	ID          string    // pets.id
	Name        *string   // pets.name (nullable)
	Species     *string   // pets.species (nullable)
	Breed       *string   // pets.breed (nullable)
	Description *string   // pets.description (nullable)
	ImageURL    *string   // pets.image_url (nullable)
	Price       *string   // pets.price (nullable)
	ExternalURL string    // pets.external_url (unique)
	ShelterID   string    // pets.shelter_id
	CreatedAt   time.Time // pets.created_at
}
