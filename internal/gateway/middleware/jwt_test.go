package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMakerRoundTrip(t *testing.T) {
	maker := NewJWTMaker("test-secret")

	token, claims, err := maker.CreateToken("42", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)

	verified, err := maker.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", verified.UserID)
}

func TestJWTMakerRejectsWrongSecret(t *testing.T) {
	maker := NewJWTMaker("test-secret")
	token, _, err := maker.CreateToken("42", time.Minute)
	require.NoError(t, err)

	other := NewJWTMaker("different-secret")
	_, err = other.VerifyToken(token)
	assert.Error(t, err)
}

func TestJWTMakerRejectsExpiredToken(t *testing.T) {
	maker := NewJWTMaker("test-secret")
	token, _, err := maker.CreateToken("42", -time.Minute)
	require.NoError(t, err)

	_, err = maker.VerifyToken(token)
	assert.Error(t, err)
}
