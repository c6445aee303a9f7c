// Package query compiles the query envelope (spec.md §4.E) into
// parameterized SQL run directly against the Row Store's *sql.DB, and
// serves the trace drill-down endpoint.
package query

import (
	"encoding/json"
	"fmt"

	"github.com/raphael-dev/raphael/internal/apperr"
)

// AttrOp is one of the attribute predicate operators spec.md §4.E
// allows against the JSON blob.
type AttrOp string

const (
	OpEq     AttrOp = "eq"
	OpLike   AttrOp = "like"
	OpGt     AttrOp = "gt"
	OpGte    AttrOp = "gte"
	OpLt     AttrOp = "lt"
	OpLte    AttrOp = "lte"
	OpExists AttrOp = "exists"
)

// AttrPredicate is one entry of the envelope's `attributes` array.
type AttrPredicate struct {
	Key   string     `json:"key"`
	Op    AttrOp     `json:"op"`
	Value *AttrValue `json:"value"`
}

// AttrValue holds a predicate's comparison value as text, accepting
// either a JSON string or a JSON number on the wire — a client sending
// `{"key":"a","op":"gte","value":2}` must not be rejected at decode
// just because the value isn't quoted.
type AttrValue string

func (v *AttrValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = AttrValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = AttrValue(n.String())
		return nil
	}
	return fmt.Errorf("query: attribute value must be a string or number")
}

// Range is the envelope's `{gte?, lte?}` shape for one allow-listed
// numeric/time column.
type Range struct {
	GTE *float64 `json:"gte"`
	LTE *float64 `json:"lte"`
}

// Envelope is the request body shared by queryTraces and queryEvents
// (spec.md §4.E).
type Envelope struct {
	Q          string            `json:"q"`
	Where      map[string]string `json:"where"`
	Range      map[string]Range  `json:"range"`
	Attributes []AttrPredicate   `json:"attributes"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
	Order      string            `json:"order"`
}

const (
	defaultLimit = 100
	minLimit     = 1
	maxLimit     = 2000
)

// normalize clamps limit/offset/order to spec.md §4.E's bounds. It
// mutates a copy, never the caller's envelope.
func (e Envelope) normalize() Envelope {
	out := e
	if out.Limit < minLimit {
		out.Limit = defaultLimit
	}
	if out.Limit > maxLimit {
		out.Limit = maxLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	switch out.Order {
	case "asc", "desc":
	default:
		out.Order = "desc"
	}
	return out
}

func validateOp(op AttrOp) error {
	switch op {
	case OpEq, OpLike, OpGt, OpGte, OpLt, OpLte, OpExists:
		return nil
	default:
		return apperr.BadInput("query: unknown attribute operator " + string(op))
	}
}
