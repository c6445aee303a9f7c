package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileBaseDropFilter(t *testing.T) {
	c, norm, err := compile(spansEntity, "1", Envelope{})
	require.NoError(t, err)
	assert.Equal(t, "drop_id = ?", c.clause)
	assert.Equal(t, []interface{}{"1"}, c.args)
	assert.Equal(t, defaultLimit, norm.Limit)
}

func TestCompileFreeTextAddsOrClause(t *testing.T) {
	c, _, err := compile(spansEntity, "1", Envelope{Q: "checkout"})
	require.NoError(t, err)
	assert.Contains(t, c.clause, "OR attributes_json LIKE ?")
	assert.Contains(t, c.clause, "service_name LIKE ?")
	assert.Equal(t, "%checkout%", c.args[len(c.args)-1])
}

func TestCompileWhereAllowList(t *testing.T) {
	c, _, err := compile(spansEntity, "1", Envelope{Where: map[string]string{"status": "error"}})
	require.NoError(t, err)
	assert.Contains(t, c.clause, "status = ?")
	assert.Contains(t, c.args, "error")
}

func TestCompileWhereRejectsUnknownColumn(t *testing.T) {
	_, _, err := compile(spansEntity, "1", Envelope{Where: map[string]string{"attributes_json": "x"}})
	assert.Error(t, err)
}

func TestCompileRangeBothBounds(t *testing.T) {
	gte, lte := 100.0, 200.0
	c, _, err := compile(spansEntity, "1", Envelope{Range: map[string]Range{
		"duration_ms": {GTE: &gte, LTE: &lte},
	}})
	require.NoError(t, err)
	assert.Contains(t, c.clause, "duration_ms >= ?")
	assert.Contains(t, c.clause, "duration_ms <= ?")
}

func TestCompileRangeRejectsUnknownColumn(t *testing.T) {
	gte := 1.0
	_, _, err := compile(spansEntity, "1", Envelope{Range: map[string]Range{
		"span_id": {GTE: &gte},
	}})
	assert.Error(t, err)
}

func TestCompileAttributeExists(t *testing.T) {
	c, _, err := compile(spansEntity, "1", Envelope{Attributes: []AttrPredicate{
		{Key: "http.method", Op: OpExists},
	}})
	require.NoError(t, err)
	assert.Contains(t, c.clause, `json_extract(attributes_json, '$."http.method"') IS NOT NULL`)
}

func TestCompileAttributeEqUsesValue(t *testing.T) {
	v := AttrValue("GET")
	c, _, err := compile(spansEntity, "1", Envelope{Attributes: []AttrPredicate{
		{Key: "http.method", Op: OpEq, Value: &v},
	}})
	require.NoError(t, err)
	assert.Contains(t, c.clause, `json_extract(attributes_json, '$."http.method"') = ?`)
	assert.Contains(t, c.args, "GET")
}

func TestCompileAttributeEqOnNumericValueCastsBothSides(t *testing.T) {
	v := AttrValue("2")
	c, _, err := compile(spansEntity, "1", Envelope{Attributes: []AttrPredicate{
		{Key: "a", Op: OpEq, Value: &v},
	}})
	require.NoError(t, err)
	assert.Contains(t, c.clause, `CAST(json_extract(attributes_json, '$."a"') AS REAL) = CAST(? AS REAL)`)
	assert.Contains(t, c.args, "2")
}

func TestCompileAttributeGteCastsBothSidesToReal(t *testing.T) {
	v := AttrValue("2")
	c, _, err := compile(spansEntity, "1", Envelope{Attributes: []AttrPredicate{
		{Key: "a", Op: OpGte, Value: &v},
	}})
	require.NoError(t, err)
	assert.Contains(t, c.clause, `CAST(json_extract(attributes_json, '$."a"') AS REAL) >= CAST(? AS REAL)`)
	assert.Contains(t, c.args, "2")
}

func TestCompileAttributeValueAcceptsJSONNumber(t *testing.T) {
	var v AttrValue
	require.NoError(t, (&v).UnmarshalJSON([]byte("2")))
	assert.Equal(t, AttrValue("2"), v)
}

func TestCompileAttributeRejectsUnknownOp(t *testing.T) {
	_, _, err := compile(spansEntity, "1", Envelope{Attributes: []AttrPredicate{
		{Key: "k", Op: "bogus"},
	}})
	assert.Error(t, err)
}

func TestCompileEventsEntityAllowList(t *testing.T) {
	c, _, err := compile(eventsEntity, "1", Envelope{Where: map[string]string{"outcome": "error"}})
	require.NoError(t, err)
	assert.Contains(t, c.clause, "outcome = ?")
}
