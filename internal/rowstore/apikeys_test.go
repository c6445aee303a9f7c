package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestServiceAccount(t *testing.T, db *Database) *ServiceAccount {
	t.Helper()
	sa, err := db.CreateServiceAccount("owner-1", "test-sa")
	require.NoError(t, err)
	return sa
}

func TestCreateApiKeyAndLookupByHash(t *testing.T) {
	db := newTestDB(t)
	sa := createTestServiceAccount(t, db)

	key, err := db.CreateApiKey(sa.ID, "ci", "abcd1234", "deadbeef", "owner-1")
	require.NoError(t, err)

	found, err := db.ApiKeyByHash("deadbeef")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, key.ID, found.ID)
}

func TestCreateApiKeyRejectsDuplicateHash(t *testing.T) {
	db := newTestDB(t)
	sa := createTestServiceAccount(t, db)

	_, err := db.CreateApiKey(sa.ID, "ci", "abcd1234", "samehash", "owner-1")
	require.NoError(t, err)
	_, err = db.CreateApiKey(sa.ID, "ci2", "efgh5678", "samehash", "owner-1")
	assert.Error(t, err)
}

func TestRevokeApiKeyHidesFromHashLookup(t *testing.T) {
	db := newTestDB(t)
	sa := createTestServiceAccount(t, db)

	key, err := db.CreateApiKey(sa.ID, "ci", "abcd1234", "tohash", "owner-1")
	require.NoError(t, err)

	require.NoError(t, db.RevokeApiKey(key.ID))

	found, err := db.ApiKeyByHash("tohash")
	require.NoError(t, err)
	assert.Nil(t, found)

	byID, err := db.ApiKeyByID(key.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.NotNil(t, byID.RevokedAt)
}

func TestRevokeApiKeyUnknownNotFound(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, db.RevokeApiKey("does-not-exist"))
}

func TestListApiKeysByServiceAccount(t *testing.T) {
	db := newTestDB(t)
	sa := createTestServiceAccount(t, db)

	_, err := db.CreateApiKey(sa.ID, "k1", "p1", "h1", "owner-1")
	require.NoError(t, err)
	_, err = db.CreateApiKey(sa.ID, "k2", "p2", "h2", "owner-1")
	require.NoError(t, err)

	list, err := db.ListApiKeysByServiceAccount(sa.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
