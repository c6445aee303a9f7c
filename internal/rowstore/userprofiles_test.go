package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertUserProfileFirstEverBecomesAdmin(t *testing.T) {
	db := newTestDB(t)

	profile, err := db.UpsertUserProfile("u1", "Whoever@Example.com", RoleMember)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, profile.Role)
	assert.Equal(t, "whoever@example.com", profile.Email) // lower-cased
}

func TestUpsertUserProfileSecondUserKeepsRequestedRole(t *testing.T) {
	db := newTestDB(t)
	_, err := db.UpsertUserProfile("u1", "a@example.com", RoleMember)
	require.NoError(t, err)

	profile, err := db.UpsertUserProfile("u2", "b@example.com", RoleMember)
	require.NoError(t, err)
	assert.Equal(t, RoleMember, profile.Role)
}

func TestUpsertUserProfileUpdatesExisting(t *testing.T) {
	db := newTestDB(t)
	_, err := db.UpsertUserProfile("u1", "a@example.com", RoleMember)
	require.NoError(t, err)

	updated, err := db.UpsertUserProfile("u1", "new@example.com", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, RoleAdmin, updated.Role)

	count, err := db.CountUserProfiles()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSetUserRoleProtectsAdminEmail(t *testing.T) {
	db := newTestDB(t)
	_, err := db.UpsertUserProfile("u1", "boss@example.com", RoleAdmin)
	require.NoError(t, err)

	err = db.SetUserRole("u1", RoleMember, "boss@example.com")
	assert.Error(t, err)

	err = db.SetUserRole("u1", RoleMember, "")
	assert.NoError(t, err)
}

func TestSetUserDisabledProtectsAdminEmail(t *testing.T) {
	db := newTestDB(t)
	_, err := db.UpsertUserProfile("u1", "boss@example.com", RoleAdmin)
	require.NoError(t, err)

	err = db.SetUserDisabled("u1", true, "boss@example.com")
	assert.Error(t, err)
}

func TestSetUserRoleUnknownUser(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, db.SetUserRole("ghost", RoleMember, ""))
}

func TestUserProfileByEmailIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	_, err := db.UpsertUserProfile("u1", "Mixed@Example.com", RoleMember)
	require.NoError(t, err)

	found, err := db.UserProfileByEmail("MIXED@EXAMPLE.COM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.UserID)
}

func TestSetPasswordHashRoundTrips(t *testing.T) {
	db := newTestDB(t)
	_, err := db.UpsertUserProfile("u1", "a@example.com", RoleMember)
	require.NoError(t, err)

	require.NoError(t, db.SetPasswordHash("u1", "bcrypt-hash"))

	found, err := db.UserProfileByID("u1")
	require.NoError(t, err)
	require.NotNil(t, found.PasswordHash)
	assert.Equal(t, "bcrypt-hash", *found.PasswordHash)
}
