package drops

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/broadcast"
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

func TestResolveDropEmptyResolvesToDefault(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	id, err := r.ResolveDrop("", false)
	require.NoError(t, err)
	assert.Equal(t, r.DefaultDropID(), id)
}

func TestResolveDropAllDigitsLooksUpByID(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	created, err := db.CreateDrop("svc-a", "")
	require.NoError(t, err)

	id, err := r.ResolveDrop(created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)
}

func TestResolveDropUnknownIDFallsBackToDefaultWhenAllowCreate(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	id, err := r.ResolveDrop("999999", true)
	require.NoError(t, err)
	assert.Equal(t, r.DefaultDropID(), id)
}

func TestResolveDropUnknownIDNotFoundWithoutAllowCreate(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	_, err := r.ResolveDrop("999999", false)
	assert.Error(t, err)
}

func TestResolveDropNameCreatesWhenAllowed(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	id, err := r.ResolveDrop("brand-new", true)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	drop, err := db.DropByID(id)
	require.NoError(t, err)
	require.NotNil(t, drop)
	assert.Equal(t, "brand-new", drop.Name)
}

func TestResolveDropNameNotFoundWithoutAllowCreate(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	_, err := r.ResolveDrop("nope", false)
	assert.Error(t, err)
}

func TestCanQueryNilSessionAlwaysAllowed(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)
	assert.True(t, r.CanQuery(nil, r.DefaultDropID()))
}

func TestCanQueryAdminAlwaysAllowed(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)
	sess := &broadcast.Session{UserID: "u1", Role: rowstore.RoleAdmin}
	assert.True(t, r.CanQuery(sess, r.DefaultDropID()))
}

func TestCanQueryMemberWithoutPermissionDenied(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)
	sess := &broadcast.Session{UserID: "u1", Role: rowstore.RoleMember}
	assert.False(t, r.CanQuery(sess, r.DefaultDropID()))
}

func TestDeleteForbidsDefaultDrop(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	err := r.Delete(r.DefaultDropID())
	assert.Error(t, err)
}

func TestDeleteNonDefaultDropSucceedsWhileAnotherExists(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	created, err := db.CreateDrop("only-other", "")
	require.NoError(t, err)
	require.NoError(t, r.Delete(created.ID))

	count, err := db.CountDrops()
	require.NoError(t, err)
	assert.Equal(t, 1, count) // only the default drop remains
}

func TestDeleteUnknownDropNotFound(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)
	assert.Error(t, r.Delete("999999"))
}

func TestCreateRequiresAdminWhenAuthEnabled(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	member := &auth.AuthContext{Kind: auth.KindSession, Role: rowstore.RoleMember}
	_, err := r.Create(member, "x", "")
	assert.Error(t, err)

	admin := &auth.AuthContext{Kind: auth.KindSession, Role: rowstore.RoleAdmin}
	drop, err := r.Create(admin, "y", "")
	require.NoError(t, err)
	assert.Equal(t, "y", drop.Name)
}

func TestCreateAllowedWhenAuthDisabled(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)

	disabled := &auth.AuthContext{Kind: auth.KindDisabled}
	drop, err := r.Create(disabled, "z", "")
	require.NoError(t, err)
	assert.Equal(t, "z", drop.Name)
}

type fakePruner struct {
	called bool
	dropID string
}

func (f *fakePruner) PruneDrop(dropID string) error {
	f.called = true
	f.dropID = dropID
	return nil
}

func TestSetRetentionDaysTriggersImmediatePrune(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistry(db)
	fp := &fakePruner{}
	r.SetPruner(fp)

	require.NoError(t, r.SetRetentionDays(r.DefaultDropID(), 3, 7))
	assert.True(t, fp.called)
	assert.Equal(t, r.DefaultDropID(), fp.dropID)
}
