package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAuthentication(t *testing.T) {
	a := NewLocalAuthentication("hash-1")
	assert.Equal(t, ProviderLocal, a.Provider())
	assert.False(t, a.IsVerified())

	a.MarkVerified()
	assert.True(t, a.IsVerified())
	a.MarkVerified()
	assert.True(t, a.IsVerified())

	a.ChangePassword("hash-2")
	assert.Equal(t, "hash-2", a.PasswordHash())
}

func TestOAuthAuthentication_StartsVerified(t *testing.T) {
	a, err := NewOAuthAuthentication(ProviderGoogle, "sub-123")
	require.NoError(t, err)
	assert.True(t, a.IsVerified())
	assert.Equal(t, ProviderGoogle, a.Provider())
	assert.Equal(t, "sub-123", a.ExternalID())
}

func TestOAuthAuthentication_MissingID(t *testing.T) {
	_, err := NewOAuthAuthentication(ProviderGoogle, "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingOAuthID))
}

func TestOAuthAuthentication_RejectsLocalProvider(t *testing.T) {
	_, err := NewOAuthAuthentication(ProviderLocal, "x")
	assert.True(t, errors.Is(err, ErrInvalidProvider))
}

func TestAuthenticationFromSnapshot(t *testing.T) {
	hash := "h"
	auth, err := AuthenticationFromSnapshot(UserSnapshot{Provider: "local", PasswordHash: &hash, IsVerified: true})
	require.NoError(t, err)
	local, ok := auth.(*LocalAuthentication)
	require.True(t, ok)
	assert.Equal(t, "h", local.PasswordHash())
	assert.True(t, local.IsVerified())

	ext := "sub"
	auth, err = AuthenticationFromSnapshot(UserSnapshot{Provider: ProviderGoogle, ExternalID: &ext, IsVerified: true})
	require.NoError(t, err)
	oauth, ok := auth.(*OAuthAuthentication)
	require.True(t, ok)
	assert.Equal(t, "sub", oauth.ExternalID())

	_, err = AuthenticationFromSnapshot(UserSnapshot{Provider: ProviderGoogle})
	assert.True(t, errors.Is(err, ErrMissingOAuthID))

	_, err = AuthenticationFromSnapshot(UserSnapshot{Provider: "FACEBOOK"})
	assert.True(t, errors.Is(err, ErrInvalidProvider))
}
