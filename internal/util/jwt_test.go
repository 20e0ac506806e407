package util

import (
	"iqtest_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-key-0123456789abcdef"

func testUser(role model.UserRole) *model.User {
	u := &model.User{
		Username: "alice",
		Email:    "alice@example.com",
		Role:     role,
	}
	u.ID = 42
	return u
}

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT(testUser(model.RoleUser), testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.False(t, claims.IsAdmin())
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(testUser(model.RoleUser), testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "another-secret-entirely-000000000000")
	assert.Error(t, err)
}

func TestParseJWTExpired(t *testing.T) {
	token, err := GenerateJWT(testUser(model.RoleUser), testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, testSecret)
	assert.Error(t, err)
}

func TestParseJWTGarbage(t *testing.T) {
	_, err := ParseJWT("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	token, err := GenerateJWT(testUser(model.RoleAdmin), testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}
