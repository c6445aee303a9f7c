package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppSettingGetAbsentReturnsNil(t *testing.T) {
	db := newTestDB(t)
	s, err := db.AppSettingGet("unset")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestAppSettingSetUpserts(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AppSettingSet("k", "v1"))
	require.NoError(t, db.AppSettingSet("k", "v2"))

	s, err := db.AppSettingGet("k")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "v2", s.Value)
}

func TestAppSettingSetIfAbsentOnlySeedsOnce(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AppSettingSetIfAbsent("k", "seed"))
	require.NoError(t, db.AppSettingSetIfAbsent("k", "overwrite-attempt"))

	s, err := db.AppSettingGet("k")
	require.NoError(t, err)
	assert.Equal(t, "seed", s.Value)
}
