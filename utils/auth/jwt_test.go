package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "secret", Issuer: "campus-api"})

	token, jti, err := m.GenerateToken("u1", "u1@gec.edu")
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, jti, claims.ID)

	identity, err := m.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UID)
	assert.Equal(t, "u1@gec.edu", identity.Email)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "secret", Issuer: "campus-api", Expiry: time.Hour})
	token, _, err := m.GenerateToken("u1", "")
	require.NoError(t, err)

	other := NewJWTManager(JWTConfig{Secret: "another-secret", Issuer: "campus-api"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherIssuer := NewJWTManager(JWTConfig{Secret: "secret", Issuer: "someone-else"})
	_, err = otherIssuer.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_RequiresSubject(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "secret"})
	token, _, err := m.GenerateToken("", "ghost@gec.edu")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
