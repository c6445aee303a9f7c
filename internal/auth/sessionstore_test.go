package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetSession(t *testing.T) {
	store := NewSessionStore(time.Hour)

	sess, err := store.CreateSession("u1", "a@example.com", "member", "127.0.0.1", "curl")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.SessionID)

	got, ok := store.GetSession(sess.SessionID)
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)
}

func TestGetSessionExpired(t *testing.T) {
	store := NewSessionStore(-time.Hour)
	sess, err := store.CreateSession("u1", "a@example.com", "member", "", "")
	require.NoError(t, err)

	_, ok := store.GetSession(sess.SessionID)
	assert.False(t, ok)
}

func TestGetSessionUnknownID(t *testing.T) {
	store := NewSessionStore(time.Hour)
	_, ok := store.GetSession("does-not-exist")
	assert.False(t, ok)
}

func TestValidateSession(t *testing.T) {
	store := NewSessionStore(time.Hour)
	sess, err := store.CreateSession("u1", "a@example.com", "member", "", "")
	require.NoError(t, err)

	assert.True(t, store.ValidateSession(sess.SessionID))
	assert.False(t, store.ValidateSession("bogus"))
}

func TestDeleteSession(t *testing.T) {
	store := NewSessionStore(time.Hour)
	sess, err := store.CreateSession("u1", "a@example.com", "member", "", "")
	require.NoError(t, err)

	store.DeleteSession(sess.SessionID)
	assert.False(t, store.ValidateSession(sess.SessionID))
}

func TestDeleteUserSessionsRemovesOnlyThatUser(t *testing.T) {
	store := NewSessionStore(time.Hour)
	s1, _ := store.CreateSession("u1", "a@example.com", "member", "", "")
	s2, _ := store.CreateSession("u2", "b@example.com", "member", "", "")

	store.DeleteUserSessions("u1")

	assert.False(t, store.ValidateSession(s1.SessionID))
	assert.True(t, store.ValidateSession(s2.SessionID))
}

func TestClearAllSessions(t *testing.T) {
	store := NewSessionStore(time.Hour)
	s1, _ := store.CreateSession("u1", "a@example.com", "member", "", "")

	store.ClearAllSessions()
	assert.False(t, store.ValidateSession(s1.SessionID))
}

func TestRefreshSessionExtendsExpiry(t *testing.T) {
	store := NewSessionStore(time.Hour)
	sess, err := store.CreateSession("u1", "a@example.com", "member", "", "")
	require.NoError(t, err)

	original := sess.ExpiresAt
	time.Sleep(time.Millisecond)
	assert.True(t, store.RefreshSession(sess.SessionID))

	got, ok := store.GetSession(sess.SessionID)
	require.True(t, ok)
	assert.True(t, got.ExpiresAt.After(original))
}

func TestRefreshSessionUnknownID(t *testing.T) {
	store := NewSessionStore(time.Hour)
	assert.False(t, store.RefreshSession("bogus"))
}
