package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetUserDropPermissionUpsertsThenUpdates(t *testing.T) {
	db := newTestDB(t)
	drop, err := db.DropByName(DefaultDropName)
	require.NoError(t, err)

	require.NoError(t, db.SetUserDropPermission("u1", drop.ID, true, false))
	perm, err := db.UserDropPermissionFor("u1", drop.ID)
	require.NoError(t, err)
	require.NotNil(t, perm)
	assert.True(t, perm.CanIngest)
	assert.False(t, perm.CanQuery)

	require.NoError(t, db.SetUserDropPermission("u1", drop.ID, true, true))
	perm, err = db.UserDropPermissionFor("u1", drop.ID)
	require.NoError(t, err)
	assert.True(t, perm.CanQuery)
}

func TestSetUserDropPermissionBothFalseDeletesRow(t *testing.T) {
	db := newTestDB(t)
	drop, err := db.DropByName(DefaultDropName)
	require.NoError(t, err)

	require.NoError(t, db.SetUserDropPermission("u1", drop.ID, true, true))
	require.NoError(t, db.SetUserDropPermission("u1", drop.ID, false, false))

	perm, err := db.UserDropPermissionFor("u1", drop.ID)
	require.NoError(t, err)
	assert.Nil(t, perm)
}

func TestListUserDropPermissions(t *testing.T) {
	db := newTestDB(t)
	drop, err := db.DropByName(DefaultDropName)
	require.NoError(t, err)
	other, err := db.CreateDrop("other", "")
	require.NoError(t, err)

	require.NoError(t, db.SetUserDropPermission("u1", drop.ID, true, false))
	require.NoError(t, db.SetUserDropPermission("u1", other.ID, false, true))

	list, err := db.ListUserDropPermissions("u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSetApiKeyPermissionUpsertsThenDeletes(t *testing.T) {
	db := newTestDB(t)
	sa, err := db.CreateServiceAccount("owner", "sa")
	require.NoError(t, err)
	key, err := db.CreateApiKey(sa.ID, "k", "prefix", "hash", "owner")
	require.NoError(t, err)
	drop, err := db.DropByName(DefaultDropName)
	require.NoError(t, err)

	require.NoError(t, db.SetApiKeyPermission(key.ID, drop.ID, true, true))
	perm, err := db.ApiKeyPermissionFor(key.ID, drop.ID)
	require.NoError(t, err)
	require.NotNil(t, perm)

	require.NoError(t, db.SetApiKeyPermission(key.ID, drop.ID, false, false))
	perm, err = db.ApiKeyPermissionFor(key.ID, drop.ID)
	require.NoError(t, err)
	assert.Nil(t, perm)
}
