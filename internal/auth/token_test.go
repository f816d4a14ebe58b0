package auth

import (
	"testing"
	"time"

	"github.com/storekit/storefront-auth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars"

func newTestTokenManager() *TokenManager {
	return NewTokenManager(testSecret, 15*time.Minute, 7*24*time.Hour)
}

func TestTokenManager_AccessTokenRoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	token, err := tm.GenerateAccessToken("user123", "shopper@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token, models.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.UserID)
	assert.Equal(t, "shopper@example.com", claims.Email)
	assert.Equal(t, models.TokenTypeAccess, claims.Type)
	assert.NotEmpty(t, claims.ID, "tokens carry a jti")
}

func TestTokenManager_RefreshTokenRoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	token, err := tm.GenerateRefreshToken("user123", "shopper@example.com")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token, models.TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeRefresh, claims.Type)
}

func TestTokenManager_TypeConfusionRejected(t *testing.T) {
	tm := newTestTokenManager()

	access, err := tm.GenerateAccessToken("user123", "shopper@example.com")
	require.NoError(t, err)
	refresh, err := tm.GenerateRefreshToken("user123", "shopper@example.com")
	require.NoError(t, err)

	_, err = tm.ValidateToken(access, models.TokenTypeRefresh)
	assert.ErrorIs(t, err, models.ErrUnauthorized, "access token must not pass as refresh")

	_, err = tm.ValidateToken(refresh, models.TokenTypeAccess)
	assert.ErrorIs(t, err, models.ErrUnauthorized, "refresh token must not pass as access")
}

func TestTokenManager_ExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager(testSecret, -1*time.Minute, 7*24*time.Hour)

	token, err := tm.GenerateAccessToken("user123", "shopper@example.com")
	require.NoError(t, err)

	_, err = tm.ValidateToken(token, models.TokenTypeAccess)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestTokenManager_WrongSecretRejected(t *testing.T) {
	tm := newTestTokenManager()
	other := NewTokenManager("a-completely-different-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := tm.GenerateAccessToken("user123", "shopper@example.com")
	require.NoError(t, err)

	_, err = other.ValidateToken(token, models.TokenTypeAccess)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestTokenManager_GarbageRejected(t *testing.T) {
	tm := newTestTokenManager()

	for _, garbage := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := tm.ValidateToken(garbage, models.TokenTypeAccess)
		assert.ErrorIs(t, err, models.ErrUnauthorized, "input %q", garbage)
	}
}
