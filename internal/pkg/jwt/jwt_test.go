package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("user-1", "a@x.com", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "a@x.com", claims.Email)

	_, err = ParseToken(token, []byte("other-secret"))
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("user-1", "a@x.com", secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, secret)
	require.Error(t, err)
}
