package user

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, "secret-pass", hash)
	assert.True(t, CheckPasswordHash("secret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestTokenManager(t *testing.T) {
	u := &User{ID: 9, Email: "admin@example.com", Role: RoleAdmin}

	t.Run("round trip", func(t *testing.T) {
		m := NewTokenManager("testsecret", time.Hour)

		token, err := m.Generate(u)
		require.NoError(t, err)

		claims, err := m.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, int64(9), claims.UserID)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, "admin@example.com", claims.Email)
	})

	t.Run("no secret", func(t *testing.T) {
		m := NewTokenManager("", time.Hour)

		_, err := m.Generate(u)
		assert.EqualError(t, err, "JWT_SECRET is not set")
	})

	t.Run("expired", func(t *testing.T) {
		m := NewTokenManager("testsecret", time.Minute)
		issued := time.Now().Add(-2 * time.Hour)
		m.now = func() time.Time { return issued }

		token, err := m.Generate(u)
		require.NoError(t, err)

		m.now = time.Now
		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenManager("one", time.Hour).Generate(u)
		require.NoError(t, err)

		_, err = NewTokenManager("two", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, CustomClaims{UserID: 1})
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = NewTokenManager("testsecret", time.Hour).Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
