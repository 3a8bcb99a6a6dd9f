// internal/pkg/auth/jwt_test.go
package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront-test"},
		JWT: config.JWTConfig{
			Secret:             "0123456789abcdef0123456789abcdef",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())

	token, err := m.GenerateAccessToken(42, "user@example.com", true)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	m := NewJWTManager(testConfig())

	token, err := m.GenerateRefreshToken(42, "user@example.com")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin, "refresh tokens must not carry admin status")
}

func TestTamperedTokenRejected(t *testing.T) {
	m := NewJWTManager(testConfig())

	token, err := m.GenerateAccessToken(1, "a@b.c", false)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}

func TestPasswordHashAndVerify(t *testing.T) {
	p := NewPasswordManager(testConfig())

	hash, err := p.HashPassword("Sup3rSecret")
	require.NoError(t, err)
	require.NoError(t, p.VerifyPassword("Sup3rSecret", hash))
	assert.Error(t, p.VerifyPassword("wrong", hash))
}

func TestPasswordStrengthRules(t *testing.T) {
	p := NewPasswordManager(testConfig())

	assert.Error(t, p.ValidatePassword("short1A"))
	assert.Error(t, p.ValidatePassword("alllowercase1"))
	assert.Error(t, p.ValidatePassword("ALLUPPERCASE1"))
	assert.Error(t, p.ValidatePassword("NoNumbersHere"))
	assert.NoError(t, p.ValidatePassword("GoodPass1"))
}
