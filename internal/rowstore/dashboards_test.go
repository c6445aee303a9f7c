package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListDashboards(t *testing.T) {
	db := newTestDB(t)
	drop, err := db.DropByName(DefaultDropName)
	require.NoError(t, err)

	_, err = db.CreateDashboard(drop.ID, "overview", `{"widgets":[]}`)
	require.NoError(t, err)

	list, err := db.ListDashboards(drop.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "overview", list[0].Name)
}

func TestDashboardByIDRoundTrips(t *testing.T) {
	db := newTestDB(t)
	drop, err := db.DropByName(DefaultDropName)
	require.NoError(t, err)

	created, err := db.CreateDashboard(drop.ID, "d", `{}`)
	require.NoError(t, err)

	found, err := db.DashboardByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "d", found.Name)
}

func TestDashboardByIDUnknownReturnsNil(t *testing.T) {
	db := newTestDB(t)
	found, err := db.DashboardByID("missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeleteDashboard(t *testing.T) {
	db := newTestDB(t)
	drop, err := db.DropByName(DefaultDropName)
	require.NoError(t, err)

	created, err := db.CreateDashboard(drop.ID, "d", `{}`)
	require.NoError(t, err)

	require.NoError(t, db.DeleteDashboard(created.ID))
	found, err := db.DashboardByID(created.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeleteDashboardUnknownNotFound(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, db.DeleteDashboard("missing"))
}
