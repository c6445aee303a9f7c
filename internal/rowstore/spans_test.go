package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertSpansAndSpansByTrace(t *testing.T) {
	db := newTestDB(t)

	parent := "parent-span"
	end := int64(2000)
	dur := int64(1000)
	spans := []*Span{
		{ID: "s2", DropID: "1", TraceID: "t1", SpanID: "span-2", ParentSpanID: &parent,
			ServiceName: "api", OperationName: "GET /b", StartTime: 1500, EndTime: &end, DurationMS: &dur,
			Status: "ok", AttributesJSON: "{}", CreatedAt: 2},
		{ID: "s1", DropID: "1", TraceID: "t1", SpanID: "parent-span",
			ServiceName: "api", OperationName: "GET /a", StartTime: 1000,
			Status: "ok", AttributesJSON: "{}", CreatedAt: 1},
	}
	require.NoError(t, db.InsertSpans(spans))

	got, err := db.SpansByTrace("1", "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "parent-span", got[0].SpanID) // start_time asc
	assert.Equal(t, "span-2", got[1].SpanID)
}

func TestInsertSpansEmptyIsNoop(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.InsertSpans(nil))
}

func TestInsertSpansRejectsDuplicateID(t *testing.T) {
	db := newTestDB(t)
	span := &Span{ID: "dup", DropID: "1", TraceID: "t1", SpanID: "sp", ServiceName: "api",
		OperationName: "op", StartTime: 1, Status: "ok", AttributesJSON: "{}", CreatedAt: 1}

	require.NoError(t, db.InsertSpans([]*Span{span}))
	err := db.InsertSpans([]*Span{span})
	assert.Error(t, err)
}
