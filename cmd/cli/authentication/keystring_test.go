package authentication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestTokens_RoundTrip(t *testing.T) {
	keyring.MockInit()

	_, err := GetTokens()
	require.ErrorIs(t, err, ErrNotLoggedIn)

	creds := &StoredCredentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Email:        "john.smith@email.com",
		Role:         "user",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, StoreTokens(creds))

	got, err := GetTokens()
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	require.NoError(t, DeleteTokens())
	require.NoError(t, DeleteTokens())
	_, err = GetTokens()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestStoredCredentials_Expired(t *testing.T) {
	now := time.Unix(1_000, 0)
	assert.False(t, (&StoredCredentials{}).Expired(now))
	assert.False(t, (&StoredCredentials{ExpiresAt: 1_001}).Expired(now))
	assert.True(t, (&StoredCredentials{ExpiresAt: 1_000}).Expired(now))
}
