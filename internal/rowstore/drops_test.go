package rowstore

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDropAssignsNumericID(t *testing.T) {
	db := newTestDB(t)

	drop, err := db.CreateDrop("checkout-svc", "Checkout Service")
	require.NoError(t, err)
	_, err = strconv.ParseInt(drop.ID, 10, 64)
	assert.NoError(t, err, "Drop.ID must be all-digits so resolveDrop's id branch can match it")
}

func TestCreateDropRejectsDuplicateName(t *testing.T) {
	db := newTestDB(t)

	_, err := db.CreateDrop("dup", "")
	require.NoError(t, err)
	_, err = db.CreateDrop("dup", "")
	assert.Error(t, err)
}

func TestDropByIDRejectsNonNumericWithoutError(t *testing.T) {
	db := newTestDB(t)

	drop, err := db.DropByID("not-a-number")
	assert.NoError(t, err)
	assert.Nil(t, drop)
}

func TestDropByIDRoundTrips(t *testing.T) {
	db := newTestDB(t)

	created, err := db.CreateDrop("roundtrip", "Round Trip")
	require.NoError(t, err)

	found, err := db.DropByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.Name, found.Name)
}

func TestSetDropRetentionNilDisables(t *testing.T) {
	db := newTestDB(t)
	drop, err := db.CreateDrop("ret-test", "")
	require.NoError(t, err)

	require.NoError(t, db.SetDropRetention(drop.ID, nil, nil))

	retention, err := db.DropRetentionFor(drop.ID)
	require.NoError(t, err)
	require.NotNil(t, retention)
	assert.Nil(t, retention.TracesRetentionMS)
	assert.Nil(t, retention.EventsRetentionMS)
}

func TestDeleteDropRemovesRow(t *testing.T) {
	db := newTestDB(t)
	drop, err := db.CreateDrop("to-delete", "")
	require.NoError(t, err)

	require.NoError(t, db.DeleteDrop(drop.ID))

	found, err := db.DropByID(drop.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
