package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	signed, err := GenerateAccessToken("secret", "u1", "s1", "ops@geoshop.test", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(signed, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "ops@geoshop.test", claims.Email)
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	signed, err := GenerateAccessToken("secret", "u1", "s1", "", time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, "other")
	assert.Error(t, err)
}

func TestAccessTokenRejectsExpired(t *testing.T) {
	signed, err := GenerateAccessToken("secret", "u1", "s1", "", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, "secret")
	assert.Error(t, err)
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	token, hash, err := GenerateRefreshToken(0)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, hash, HashRefreshToken(token))

	other, _, err := GenerateRefreshToken(0)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
