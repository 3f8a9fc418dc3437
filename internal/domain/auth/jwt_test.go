package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	user := NewUser("farmer@example.com", "x")
	user.Roles = []string{"operator"}
	user.CompanyIDs = []string{"0194e1a0-0000-7000-8000-000000000001"}

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, user.Email, uc.Email)
	assert.Equal(t, user.Roles, uc.Roles)
	assert.Equal(t, user.CompanyIDs, uc.CompanyIDs)
	assert.False(t, uc.IsAdmin)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret-a"))
	user := NewUser("farmer@example.com", "x")

	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("secret-b"))
	_, err = other.ValidateToken(token)
	require.Error(t, err)
}

func TestUserLockout(t *testing.T) {
	user := NewUser("farmer@example.com", "x")

	for i := 0; i < 5; i++ {
		user.RecordFailedLogin(5, 15*time.Minute)
	}
	assert.True(t, user.IsLocked())
	require.Error(t, user.CanLogin())

	user.RecordSuccessfulLogin()
	assert.False(t, user.IsLocked())
	require.NoError(t, user.CanLogin())
}
