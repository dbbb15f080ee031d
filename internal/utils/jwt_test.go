package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "jwt-test-secret"
	testIssuer   = "shelter-api"
	testAudience = "shelter-clients"
)

func TestAccessToken_IssueAndParse(t *testing.T) {
	tok, err := NewAccessToken(testSecret, testIssuer, testAudience,
		"2f0c7bd2-44a5-4af2-9a55-8e7c9a3f0001", "shelter_owner", 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	sub, role, err := ParseAccessToken(testSecret, testIssuer, testAudience, tok.Token)
	require.NoError(t, err)
	require.Equal(t, "2f0c7bd2-44a5-4af2-9a55-8e7c9a3f0001", sub)
	require.Equal(t, "shelter_owner", role)
}

func TestParseAccessToken_Rejections(t *testing.T) {
	good, err := NewAccessToken(testSecret, testIssuer, testAudience, "uid-1", "user", 15)
	require.NoError(t, err)

	expired, err := NewAccessToken(testSecret, testIssuer, testAudience, "uid-1", "user", -1)
	require.NoError(t, err)

	tests := []struct {
		name             string
		secret, iss, aud string
		raw              string
	}{
		{"wrong secret", "other-secret", testIssuer, testAudience, good.Token},
		{"wrong issuer", testSecret, "other-issuer", testAudience, good.Token},
		{"wrong audience", testSecret, testIssuer, "other-audience", good.Token},
		{"expired", testSecret, testIssuer, testAudience, expired.Token},
		{"garbage", testSecret, testIssuer, testAudience, "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseAccessToken(tt.secret, tt.iss, tt.aud, tt.raw)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
