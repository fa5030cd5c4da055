package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "test-secret-key-with-enough-length-0123456789"

func newHMACTokenService(t *testing.T, accessTTL, refreshTTL time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(accessTTL, refreshTTL, "test-issuer", "test-audience", false, "", "", testSecretKey)
	require.NoError(t, err)
	return svc
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc := newHMACTokenService(t, 1*time.Hour, 24*time.Hour)

	accessToken, refreshToken, err := svc.GenerateTokens("ops@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	accessClaims, err := svc.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", accessClaims.OperatorEmail)
	assert.Equal(t, "access", accessClaims.TokenType)
	assert.NotEmpty(t, accessClaims.TokenID)
	assert.True(t, accessClaims.ExpiresAt.After(time.Now()))

	refreshClaims, err := svc.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	assert.NotEqual(t, accessClaims.TokenID, refreshClaims.TokenID)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc := newHMACTokenService(t, -1*time.Minute, -1*time.Minute)

	accessToken, _, err := svc.GenerateTokens("ops@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(accessToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_InvalidToken(t *testing.T) {
	svc := newHMACTokenService(t, 1*time.Hour, 24*time.Hour)

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_TokenFromDifferentSecretRejected(t *testing.T) {
	first := newHMACTokenService(t, 1*time.Hour, 24*time.Hour)

	other, err := NewTokenService(1*time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "a-completely-different-secret-key-9876543210")
	require.NoError(t, err)

	accessToken, _, err := other.GenerateTokens("ops@example.com")
	require.NoError(t, err)

	_, err = first.ValidateToken(accessToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_RefreshIssuesNewPair(t *testing.T) {
	svc := newHMACTokenService(t, 1*time.Hour, 24*time.Hour)

	_, refreshToken, err := svc.GenerateTokens("ops@example.com")
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)
	assert.NotEqual(t, refreshToken, newRefresh)

	claims, err := svc.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.OperatorEmail)
	assert.Equal(t, "access", claims.TokenType)
}

func TestTokenService_RefreshRejectsAccessToken(t *testing.T) {
	svc := newHMACTokenService(t, 1*time.Hour, 24*time.Hour)

	accessToken, _, err := svc.GenerateTokens("ops@example.com")
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(accessToken)
	require.Error(t, err)
}

func TestTokenService_RequiresSecretWithoutRSA(t *testing.T) {
	_, err := NewTokenService(1*time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "")
	require.Error(t, err)
}
