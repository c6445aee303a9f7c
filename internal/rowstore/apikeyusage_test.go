package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAndListApiKeyUsage(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.LogApiKeyUsage(&ApiKeyUsage{ApiKeyID: "k1", Method: "POST", Path: "/v1/traces", Status: 200, IP: "127.0.0.1"}))
	require.NoError(t, db.LogApiKeyUsage(&ApiKeyUsage{ApiKeyID: "k1", Method: "POST", Path: "/v1/events", Status: 400, IP: "127.0.0.1"}))

	list, err := db.ListApiKeyUsage("k1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "/v1/events", list[0].Path) // newest first
}

func TestListApiKeyUsageDefaultsLimit(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.LogApiKeyUsage(&ApiKeyUsage{ApiKeyID: "k1", Method: "GET", Path: "/v1/query/events", Status: 200}))

	list, err := db.ListApiKeyUsage("k1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
