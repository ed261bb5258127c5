package configurator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator(t *testing.T) {
	a := NewAuthenticator("secret", time.Hour)
	require.NoError(t, a.AddUser("admin", "s3cret"))

	t.Run("valid credentials", func(t *testing.T) {
		token, err := a.Login("admin", "s3cret")
		require.NoError(t, err)
		claims, err := a.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
		assert.Equal(t, "configurator", claims.Issuer)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := a.Login("admin", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := a.Login("ghost", "s3cret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := NewAuthenticator("other", time.Hour)
		require.NoError(t, other.AddUser("admin", "s3cret"))
		token, err := other.GenerateToken("admin")
		require.NoError(t, err)
		_, err = a.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		short := NewAuthenticator("secret", -time.Minute)
		require.NoError(t, short.AddUser("admin", "s3cret"))
		token, err := short.GenerateToken("admin")
		require.NoError(t, err)
		_, err = short.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := a.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
