package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
)

func TestAuthService_TokenRoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret")

	// Given: a token issued for a user
	token, err := auth.GenerateToken("user-1", "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// When: the token is verified
	userID, err := auth.VerifyToken(token)

	// Then: the stable user id comes back
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestAuthService_VerifyToken_Rejections(t *testing.T) {
	t.Run("Garbage", func(t *testing.T) {
		auth := NewAuthService("test-secret")

		// When: a malformed token is verified
		_, err := auth.VerifyToken("not-a-token")

		// Then: it maps to the single identity error
		require.ErrorIs(t, err, apperror.ErrInvalidIdentity)
	})

	t.Run("WrongKey", func(t *testing.T) {
		issuer := NewAuthService("key-one")
		verifier := NewAuthService("key-two")

		token, err := issuer.GenerateToken("user-1", "user@example.com")
		require.NoError(t, err)

		// When: the token is verified with a different key
		_, err = verifier.VerifyToken(token)

		// Then: the signature does not hold
		require.ErrorIs(t, err, apperror.ErrInvalidIdentity)
	})
}
