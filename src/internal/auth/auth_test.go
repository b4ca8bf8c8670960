package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemvault/gemvault/src/internal/database/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret-key", "gemvault", time.Hour)

	user := &models.User{
		ID:         uuid.New(),
		ClientCode: "ACME",
		Username:   "jeweler",
		IsAdmin:    true,
	}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "jeweler", claims.Username)
	assert.Equal(t, "ACME", claims.ClientCode)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "gemvault", claims.Issuer)
}

func TestTokenValidation(t *testing.T) {
	svc := NewAuthService("test-secret-key", "gemvault", time.Hour)

	t.Run("RejectsGarbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("RejectsWrongKey", func(t *testing.T) {
		other := NewAuthService("different-key", "gemvault", time.Hour)
		pair, err := other.GenerateTokenPair(&models.User{ID: uuid.New(), ClientCode: "ACME"})
		require.NoError(t, err)

		_, err = svc.ValidateToken(pair.AccessToken)
		assert.Error(t, err)
	})

	t.Run("RejectsExpired", func(t *testing.T) {
		shortLived := NewAuthService("test-secret-key", "gemvault", time.Millisecond)
		pair, err := shortLived.GenerateTokenPair(&models.User{ID: uuid.New(), ClientCode: "ACME"})
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		_, err = svc.ValidateToken(pair.AccessToken)
		assert.Error(t, err)
	})
}
