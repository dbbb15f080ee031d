package repository

import (
	"context"

	"github.com/smartshelter/api/internal/dbx"
	"github.com/smartshelter/api/internal/model"
)

// ShelterRepo persists shelter rows.
type ShelterRepo struct{ db dbx.DBTX }

func NewShelterRepo(db dbx.DBTX) *ShelterRepo { return &ShelterRepo{db: db} }

const shelterColumns = "id, name, address, phone, email, description, owner_id, created_at"

// Create inserts a shelter. A duplicate email ciphertext maps to
// ErrShelterEmailExists so find-or-create callers can re-read instead of
// duplicating the row.
func (r *ShelterRepo) Create(ctx context.Context, s *model.Shelter) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO shelters (id, name, address, phone, email, description, owner_id) VALUES (?,?,?,?,?,?,?)",
		s.ID, s.Name, s.Address, s.Phone, s.Email, s.Description, s.OwnerID)
	if isDuplicate(err, "uq_shelters_email") {
		return ErrShelterEmailExists
	}
	return err
}

// GetByEmailCipher fetches a shelter by the deterministic ciphertext of its
// email. Used by the importer to find its synthetic shelter idempotently.
func (r *ShelterRepo) GetByEmailCipher(ctx context.Context, emailCipher string) (model.Shelter, error) {
	var s model.Shelter
	err := r.db.QueryRowContext(ctx,
		"SELECT "+shelterColumns+" FROM shelters WHERE email=? LIMIT 1", emailCipher).Scan(
		&s.ID, &s.Name, &s.Address, &s.Phone, &s.Email, &s.Description, &s.OwnerID, &s.CreatedAt)
	return s, err
}
