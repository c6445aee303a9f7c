package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertEventsAndEventsByTrace(t *testing.T) {
	db := newTestDB(t)

	trace := "t1"
	events := []*WideEvent{
		{ID: "e1", DropID: "1", TraceID: &trace, ServiceName: "api", Outcome: "success",
			AttributesJSON: "{}", CreatedAt: 1},
		{ID: "e2", DropID: "1", TraceID: &trace, ServiceName: "api", Outcome: "error",
			AttributesJSON: "{}", CreatedAt: 2},
	}
	require.NoError(t, db.InsertEvents(events))

	got, err := db.EventsByTrace("1", "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID) // created_at asc
	assert.Equal(t, "e2", got[1].ID)
}

func TestInsertEventsEmptyIsNoop(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.InsertEvents(nil))
}
