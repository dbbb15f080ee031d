package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/smartshelter/api/internal/model"
	"github.com/smartshelter/api/internal/repository"
	"github.com/smartshelter/api/internal/utils"
)

// Synthetic identity used by the background pet importer. It owns the shelter
// that imported listings are attached to. The account has an empty password
// hash and can therefore never authenticate.
const (
	systemEmail        = "importer@system.local"
	systemUsername     = "import_bot"
	systemShelterName  = "Imported listings"
	systemShelterAddr  = "internet"
	systemShelterPhone = "0000"
	systemShelterDesc  = "Listings imported from external sites"
)

// AccountService implements registration, login and the idempotent
// provisioning of the importer's system account. It composes the PII cipher,
// the password hasher and the token issuer; the database's unique constraints
// are the source of truth for every uniqueness decision.
type AccountService struct {
	db          *sql.DB
	cipher      utils.Cipher
	jwtSecret   string
	jwtIssuer   string
	jwtAudience string
	tokenTTLMin int
	bcryptCost  int
}

// NewAccountService wires an AccountService from startup configuration. The
// cipher and signing secret are fixed for the process lifetime.
func NewAccountService(db *sql.DB, cipher utils.Cipher, jwtSecret, jwtIssuer, jwtAudience string, tokenTTLMin, bcryptCost int) *AccountService {
	return &AccountService{
		db:          db,
		cipher:      cipher,
		jwtSecret:   jwtSecret,
		jwtIssuer:   jwtIssuer,
		jwtAudience: jwtAudience,
		tokenTTLMin: tokenTTLMin,
		bcryptCost:  bcryptCost,
	}
}

// Profile is the decrypted view of an account returned after login. Email and
// Phone are best-effort: a value that fails to decrypt is reported empty
// rather than failing the login.
type Profile struct {
	ID       string
	Username string
	Email    string
	Phone    string
	Role     string
}

// LoginResult bundles the issued bearer token with the caller's profile.
type LoginResult struct {
	Token   utils.AccessToken
	Profile Profile
}

// Register creates an account. Shape validation happens at the HTTP boundary;
// here the email is encrypted, the password hashed, and uniqueness of both
// username and email ciphertext enforced by the insert itself. Role defaults
// to "user" when not one of the known roles.
func (s *AccountService) Register(ctx context.Context, username, email, password, role string) (model.User, error) {
	emailCipher, err := s.cipher.Encrypt(email)
	if err != nil {
		return model.User{}, err
	}
	switch role {
	case model.RoleAdmin, model.RoleShelterOwner, model.RoleUser:
	default:
		role = model.RoleUser
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        emailCipher,
		PasswordHash: hash,
		Role:         role,
	}
	if err := repository.NewUserRepo(s.db).Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Login authenticates by encrypted-email equality and password verification.
// Unknown email and wrong password are indistinguishable to the caller. On
// success a bearer token is issued carrying the account id and role.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	emailCipher, err := s.cipher.Encrypt(email)
	if err != nil {
		// The cipher is security-relevant on this path; fail hard.
		return LoginResult{}, err
	}
	u, err := repository.NewUserRepo(s.db).GetByEmailCipher(ctx, emailCipher)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if u.PasswordHash == "" || !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	tok, err := utils.NewAccessToken(s.jwtSecret, s.jwtIssuer, s.jwtAudience, u.ID, u.Role, s.tokenTTLMin)
	if err != nil {
		return LoginResult{}, err
	}

	p := Profile{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		Email:    s.cipher.DecryptOrEmpty(u.Email),
	}
	if u.Phone != nil {
		p.Phone = s.cipher.DecryptOrEmpty(*u.Phone)
	}
	return LoginResult{Token: tok, Profile: p}, nil
}

// EnsureSystemAccount finds or creates the importer's synthetic account by
// deterministic encrypted-email lookup. Concurrent invocations converge on a
// single row: a duplicate-key loss on insert is followed by a re-read, never
// surfaced as a failure.
func (s *AccountService) EnsureSystemAccount(ctx context.Context) (model.User, error) {
	emailCipher, err := s.cipher.Encrypt(systemEmail)
	if err != nil {
		return model.User{}, err
	}
	users := repository.NewUserRepo(s.db)

	u, err := users.GetByEmailCipher(ctx, emailCipher)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, err
	}

	u = model.User{
		ID:           uuid.NewString(),
		Username:     systemUsername,
		Email:        emailCipher,
		PasswordHash: "", // never authenticates
		Role:         model.RoleShelterOwner,
	}
	err = users.Create(ctx, &u)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, repository.ErrEmailExists), errors.Is(err, repository.ErrUsernameExists):
		// Another import cycle created it first.
		return users.GetByEmailCipher(ctx, emailCipher)
	default:
		return model.User{}, err
	}
}

// EnsureSystemShelter finds or creates the shelter owned by the system
// account, keyed by the same encrypted email. Same idempotence discipline as
// EnsureSystemAccount.
func (s *AccountService) EnsureSystemShelter(ctx context.Context, ownerID string) (model.Shelter, error) {
	emailCipher, err := s.cipher.Encrypt(systemEmail)
	if err != nil {
		return model.Shelter{}, err
	}
	shelters := repository.NewShelterRepo(s.db)

	sh, err := shelters.GetByEmailCipher(ctx, emailCipher)
	if err == nil {
		return sh, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Shelter{}, err
	}

	phone := systemShelterPhone
	desc := systemShelterDesc
	sh = model.Shelter{
		ID:          uuid.NewString(),
		Name:        systemShelterName,
		Address:     systemShelterAddr,
		Phone:       &phone,
		Email:       &emailCipher,
		Description: &desc,
		OwnerID:     ownerID,
	}
	err = shelters.Create(ctx, &sh)
	switch {
	case err == nil:
		return sh, nil
	case errors.Is(err, repository.ErrShelterEmailExists):
		return shelters.GetByEmailCipher(ctx, emailCipher)
	default:
		return model.Shelter{}, err
	}
}
