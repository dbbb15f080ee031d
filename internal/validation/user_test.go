package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRegister(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		email     string
		password  string
		wantField string // empty = valid
	}{
		{"valid", "jane_doe", "jane@example.com", "Password1", ""},
		{"missing email", "jane_doe", "", "Password1", "email"},
		{"short email", "jane_doe", "a@b.", "Password1", "email"},
		{"bad email shape", "jane_doe", "not-an-email@@x", "Password1", "email"},
		{"long email", "jane_doe", strings.Repeat("a", 45) + "@ex.com", "Password1", "email"},
		{"missing password", "jane_doe", "jane@example.com", "", "password"},
		{"short password", "jane_doe", "jane@example.com", "Pw1", "password"},
		{"no uppercase", "jane_doe", "jane@example.com", "password1", "password"},
		{"no lowercase", "jane_doe", "jane@example.com", "PASSWORD1", "password"},
		{"no digit", "jane_doe", "jane@example.com", "PasswordX", "password"},
		{"multibyte password counts runes", "jane_doe", "jane@example.com", "Pārole1x", ""},
		{"multibyte password still too short", "jane_doe", "jane@example.com", "Pārol1", "password"},
		{"missing username", "", "jane@example.com", "Password1", "username"},
		{"short username", "ab", "jane@example.com", "Password1", "username"},
		{"long username", strings.Repeat("a", 21), "jane@example.com", "Password1", "username"},
		{"bad username chars", "jane doe!", "jane@example.com", "Password1", "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := UserRegister(tt.username, tt.email, tt.password)
			if tt.wantField == "" {
				require.Empty(t, errs)
				return
			}
			require.Contains(t, errs, tt.wantField)
		})
	}
}

func TestUserLogin(t *testing.T) {
	require.Empty(t, UserLogin("jane@example.com", "whatever"))
	require.Contains(t, UserLogin("", "whatever"), "email")
	require.Contains(t, UserLogin("nope", "whatever"), "email")
	require.Contains(t, UserLogin("jane@example.com", ""), "password")
}
