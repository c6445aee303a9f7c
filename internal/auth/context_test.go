package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphael-dev/raphael/internal/rowstore"
)

func newTestDB(t *testing.T) *rowstore.Database {
	t.Helper()
	db, err := rowstore.Open(rowstore.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestIsAllowedEmailBypassedWhenAuthDisabled(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, nil, nil, Config{Enabled: false})

	ok, err := s.IsAllowedEmail("anyone@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAllowedEmailBypassedWhenPasswordLoginOn(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, nil, nil, Config{Enabled: true, PasswordLoginOn: true})

	ok, err := s.IsAllowedEmail("anyone@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAllowedEmailAllowsEverythingWhenListsEmpty(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, nil, nil, Config{Enabled: true, PasswordLoginOn: false})

	ok, err := s.IsAllowedEmail("anyone@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAllowedEmailMatchesExplicitEmail(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AppSettingSet(settingAllowedEmails, `["a@example.com"]`))
	s := NewService(db, nil, nil, Config{Enabled: true, PasswordLoginOn: false})

	ok, err := s.IsAllowedEmail("A@Example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAllowedEmail("b@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAllowedEmailMatchesDomain(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AppSettingSet(settingAllowedDomains, `["example.com"]`))
	s := NewService(db, nil, nil, Config{Enabled: true, PasswordLoginOn: false})

	ok, err := s.IsAllowedEmail("whoever@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAllowedEmail("whoever@other.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyDefaultPermissionsSkipsWhenAlreadyGranted(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, nil, nil, Config{})

	drop, err := db.DropByName(rowstore.DefaultDropName)
	require.NoError(t, err)
	require.NoError(t, db.SetUserDropPermission("u1", drop.ID, true, false))

	require.NoError(t, db.AppSettingSet(settingDefaultCanQuery, "true"))
	require.NoError(t, s.ApplyDefaultPermissions("u1"))

	perm, err := db.UserDropPermissionFor("u1", drop.ID)
	require.NoError(t, err)
	assert.True(t, perm.CanIngest)
	assert.False(t, perm.CanQuery) // untouched, existing permission wasn't overwritten
}

func TestApplyDefaultPermissionsGrantsConfiguredDefaults(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, nil, nil, Config{})

	require.NoError(t, db.AppSettingSet(settingDefaultCanIngest, "true"))
	require.NoError(t, db.AppSettingSet(settingDefaultCanQuery, "true"))
	require.NoError(t, s.ApplyDefaultPermissions("u1"))

	drop, err := db.DropByName(rowstore.DefaultDropName)
	require.NoError(t, err)
	perm, err := db.UserDropPermissionFor("u1", drop.ID)
	require.NoError(t, err)
	require.NotNil(t, perm)
	assert.True(t, perm.CanIngest)
	assert.True(t, perm.CanQuery)
}

func TestApplyDefaultPermissionsNoopWhenNothingConfigured(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, nil, nil, Config{})

	require.NoError(t, s.ApplyDefaultPermissions("u1"))

	drop, err := db.DropByName(rowstore.DefaultDropName)
	require.NoError(t, err)
	perm, err := db.UserDropPermissionFor("u1", drop.ID)
	require.NoError(t, err)
	assert.Nil(t, perm)
}

func TestObserveSessionPromotesConfiguredAdminEmail(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, nil, nil, Config{AdminEmail: "boss@example.com"})

	// u0 claims the "first profile ever becomes admin" slot first, so
	// u1's later promotion below can only be explained by the email match.
	_, err := s.ObserveSession("u0", "first-user@example.com")
	require.NoError(t, err)

	profile, err := s.ObserveSession("u1", "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, rowstore.RoleAdmin, profile.Role)
}

func TestObserveSessionDefaultsToMember(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, nil, nil, Config{AdminEmail: "boss@example.com"})

	// u0 claims the "first profile ever becomes admin" slot so u2's
	// non-matching email is evaluated under the normal default-member path.
	_, err := s.ObserveSession("u0", "first-user@example.com")
	require.NoError(t, err)

	profile, err := s.ObserveSession("u2", "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, rowstore.RoleMember, profile.Role)
}

func TestIsAdmin(t *testing.T) {
	admin := &AuthContext{Kind: KindSession, Role: rowstore.RoleAdmin}
	member := &AuthContext{Kind: KindSession, Role: rowstore.RoleMember}
	apiKey := &AuthContext{Kind: KindAPIKey, Role: rowstore.RoleAdmin}

	assert.True(t, admin.IsAdmin())
	assert.False(t, member.IsAdmin())
	assert.False(t, apiKey.IsAdmin())
}
