package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testCost = 4 // bcrypt.MinCost, keeps the suite fast

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple", "Password1"},
		{"symbols", "P@ssw0rd!#$"},
		{"spaces", "  spaced out 9X "},
		{"unicode", "Parole1līdaka"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, testCost)
			require.NoError(t, err)
			require.NotEmpty(t, hash)
			require.NotEqual(t, tt.password, hash)

			require.True(t, VerifyPassword(hash, tt.password))
			require.False(t, VerifyPassword(hash, tt.password+"x"))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("Password1", testCost)
	require.NoError(t, err)
	h2, err := HashPassword("Password1", testCost)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2, "salt must differ per call")

	require.True(t, VerifyPassword(h1, "Password1"))
	require.True(t, VerifyPassword(h2, "Password1"))
}

func TestVerifyPassword_GarbageHash(t *testing.T) {
	// A structurally invalid stored hash is a verification failure, not a panic.
	require.False(t, VerifyPassword("not-a-bcrypt-hash", "Password1"))
	require.False(t, VerifyPassword("", "Password1"))
}
