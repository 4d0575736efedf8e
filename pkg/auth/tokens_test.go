package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestTokenStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewTokenStore("https://srclight.example")

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("sekret"))
	token, err = store.Token()
	require.NoError(t, err)
	assert.Equal(t, "sekret", token)

	require.NoError(t, store.Delete())
	token, err = store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestTokenStoreScopedByEndpoint(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, NewTokenStore("https://a.example").Save("token-a"))
	require.NoError(t, NewTokenStore("https://b.example").Save("token-b"))

	token, err := NewTokenStore("https://a.example").Token()
	require.NoError(t, err)
	assert.Equal(t, "token-a", token)
}

func TestTokenStoreEnvOverride(t *testing.T) {
	keyring.MockInit()
	store := NewTokenStore("https://srclight.example")
	require.NoError(t, store.Save("stored"))

	t.Setenv(EnvAccessToken, "from-env")
	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)
}

func TestDescribeToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"iss": "https://srclight.example",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	info, err := DescribeToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Subject)
	assert.Equal(t, "https://srclight.example", info.Issuer)
	assert.Equal(t, exp.Unix(), info.ExpiresAt.Unix())
	assert.False(t, info.Expired())
}

func TestDescribeTokenRejectsOpaqueTokens(t *testing.T) {
	_, err := DescribeToken("not-a-jwt")
	assert.Error(t, err)
}
