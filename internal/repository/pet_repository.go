package repository

import (
	"context"

	"github.com/smartshelter/api/internal/dbx"
	"github.com/smartshelter/api/internal/model"
)

// PetRepo persists imported pets. Dedupe across import runs rides on the
// unique key over pets.external_url.
type PetRepo struct{ db dbx.DBTX }

func NewPetRepo(db dbx.DBTX) *PetRepo { return &PetRepo{db: db} }

// ExistsByExternalURL reports whether a pet with this source URL was already
// imported.
func (r *PetRepo) ExistsByExternalURL(ctx context.Context, url string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM pets WHERE external_url=?", url).Scan(&n)
	return n > 0, err
}

// Create inserts a pet. A duplicate external URL maps to ErrPetExists, which
// the importer skips silently: two overlapping runs importing the same
// listing is expected, not an error.
func (r *PetRepo) Create(ctx context.Context, p *model.Pet) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO pets (id, name, species, breed, description, image_url, price, external_url, shelter_id) VALUES (?,?,?,?,?,?,?,?,?)",
		p.ID, p.Name, p.Species, p.Breed, p.Description, p.ImageURL, p.Price, p.ExternalURL, p.ShelterID)
	if isDuplicate(err, "uq_pets_external_url") {
		return ErrPetExists
	}
	return err
}
