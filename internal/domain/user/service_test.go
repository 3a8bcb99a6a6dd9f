// internal/domain/user/service_test.go
package user

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Address{}))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront-test"},
		JWT: config.JWTConfig{
			Secret:             "test-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())

	u, err := svc.Register(context.Background(), &RegisterRequest{
		Email:     "Alice@Example.com",
		Password:  "secret123",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, u.IsActive)

	loggedIn, tokens, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, loggedIn.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())

	req := &RegisterRequest{Email: "bob@example.com", Password: "secret123", FirstName: "Bob", LastName: "Jones"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "carol@example.com", Password: "secret123", FirstName: "Carol", LastName: "Lee",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), &LoginRequest{Email: "carol@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())

	u, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "dave@example.com", Password: "secret123", FirstName: "Dave", LastName: "Kim",
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(u).Update("is_active", false).Error)

	_, _, err = svc.Login(context.Background(), &LoginRequest{Email: "dave@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "erin@example.com", Password: "secret123", FirstName: "Erin", LastName: "Wu",
	})
	require.NoError(t, err)

	_, tokens, err := svc.Login(context.Background(), &LoginRequest{Email: "erin@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), tokens.AccessToken)
	assert.Error(t, err)

	refreshed, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}
