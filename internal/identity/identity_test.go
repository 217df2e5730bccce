// ABOUTME: Tests for ID token parsing
// ABOUTME: Covers claim extraction, expiry, and malformed tokens

package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestFromIDToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tok := signedToken(t, jwt.MapClaims{
		"sub":     "u123",
		"name":    "Rahim Uddin",
		"email":   "rahim@example.com",
		"picture": "https://example.com/p.png",
		"exp":     now.Add(time.Hour).Unix(),
	})

	user, err := FromIDToken(tok, func() time.Time { return now })
	require.NoError(t, err)
	assert.Equal(t, "u123", user.UID)
	assert.Equal(t, "Rahim Uddin", user.DisplayName)
	assert.Equal(t, "rahim@example.com", user.Email)
	assert.Equal(t, "https://example.com/p.png", user.PhotoURL)
}

func TestFromIDTokenMinimalClaims(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "u1"})
	user, err := FromIDToken(tok, nil)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UID)
	assert.Empty(t, user.DisplayName)
}

func TestFromIDTokenExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tok := signedToken(t, jwt.MapClaims{
		"sub": "u1",
		"exp": now.Add(-time.Minute).Unix(),
	})
	_, err := FromIDToken(tok, func() time.Time { return now })
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestFromIDTokenMissingSub(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"name": "nobody"})
	_, err := FromIDToken(tok, nil)
	assert.ErrorIs(t, err, ErrMissingClaim)
}

func TestFromIDTokenMalformed(t *testing.T) {
	_, err := FromIDToken("not.a.token", nil)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
