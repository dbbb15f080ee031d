package repository

import (
	"context"

	"github.com/smartshelter/api/internal/dbx"
	"github.com/smartshelter/api/internal/model"
)

// UserRepo persists account rows. The email column always holds ciphertext;
// this layer never sees plaintext PII.
type UserRepo struct{ db dbx.DBTX }

// NewUserRepo binds a repository to a database or transaction handle.
func NewUserRepo(db dbx.DBTX) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, username, email, password_hash, role, phone, address, created_at"

// Create inserts a user. Duplicate username and duplicate email ciphertext
// map to ErrUsernameExists and ErrEmailExists respectively.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash, role, phone, address) VALUES (?,?,?,?,?,?,?)",
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.Phone, u.Address)
	switch {
	case isDuplicate(err, "uq_users_username"):
		return ErrUsernameExists
	case isDuplicate(err, "uq_users_email"):
		return ErrEmailExists
	}
	return err
}

// GetByUsername fetches a user by exact username. Returns sql.ErrNoRows when
// absent.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// GetByEmailCipher fetches a user by the deterministic ciphertext of their
// email. Ciphertext equality is the canonical lookup mechanism for encrypted
// columns.
func (r *UserRepo) GetByEmailCipher(ctx context.Context, emailCipher string) (model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", emailCipher)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, args ...any) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.Address, &u.CreatedAt)
	return u, err
}
