package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/smartshelter/api/internal/model"
)

func dup(key string) *mysql.MySQLError {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'users." + key + "'"}
}

func TestUserRepo_Create_MapsDuplicates(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{"duplicate username", dup("uq_users_username"), ErrUsernameExists},
		{"duplicate email", dup("uq_users_email"), ErrEmailExists},
		{"unrelated error", sql.ErrConnDone, sql.ErrConnDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec("INSERT INTO users").WillReturnError(tt.dbErr)

			repo := NewUserRepo(db)
			err = repo.Create(context.Background(), &model.User{
				ID:           "u-1",
				Username:     "jane_doe",
				Email:        "ciphertext",
				PasswordHash: "hash",
				Role:         model.RoleUser,
			})
			require.ErrorIs(t, err, tt.wantErr)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepo_GetByEmailCipher(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "phone", "address", "created_at"}).
		AddRow("u-1", "jane_doe", "ciphertext", "hash", "user", nil, nil, now)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("ciphertext").
		WillReturnRows(rows)

	repo := NewUserRepo(db)
	u, err := repo.GetByEmailCipher(context.Background(), "ciphertext")
	require.NoError(t, err)
	require.Equal(t, "u-1", u.ID)
	require.Equal(t, "jane_doe", u.Username)
	require.Nil(t, u.Phone)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByEmailCipher(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
