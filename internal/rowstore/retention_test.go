package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteOlderThanBatchesAndRespectsLimit(t *testing.T) {
	db := newTestDB(t)

	spans := make([]*Span, 0, 10)
	for i := 0; i < 10; i++ {
		spans = append(spans, &Span{
			ID: "s" + string(rune('a'+i)), DropID: "1", TraceID: "t", SpanID: "sp",
			ServiceName: "api", OperationName: "op", StartTime: int64(i),
			Status: "ok", AttributesJSON: "{}", CreatedAt: int64(i),
		})
	}
	require.NoError(t, db.InsertSpans(spans))

	n, err := db.DeleteOlderThan("1", TableSpans, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = db.DeleteOlderThan("1", TableSpans, 5, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n) // 5 rows with created_at<5 total, 3 already deleted
}

func TestDeleteOlderThanUnknownTable(t *testing.T) {
	db := newTestDB(t)
	_, err := db.DeleteOlderThan("1", "not_a_table", 5, 10)
	assert.Error(t, err)
}

func TestDeleteOlderThanNoMatches(t *testing.T) {
	db := newTestDB(t)
	n, err := db.DeleteOlderThan("1", TableSpans, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
