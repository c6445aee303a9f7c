package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("wrong password", hash))
}

func TestGenerateAPIKeyShapeAndHash(t *testing.T) {
	raw, prefix, hash, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.Len(t, prefix, apiKeyPrefixLen)
	assert.Equal(t, raw[:apiKeyPrefixLen], prefix)
	assert.Equal(t, HashAPIKey(raw), hash)
}

func TestGenerateAPIKeyUniqueEachCall(t *testing.T) {
	raw1, _, _, err := GenerateAPIKey()
	require.NoError(t, err)
	raw2, _, _, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, raw1, raw2)
}

func TestHashAPIKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, HashAPIKey("abc"), HashAPIKey("abc"))
	assert.NotEqual(t, HashAPIKey("abc"), HashAPIKey("xyz"))
}
