package query

import (
	"strconv"
	"strings"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// entity describes one queryable table's allow-lists, so the envelope
// compiler never lets a caller reference an arbitrary column (spec.md
// §4.E "equality match on a fixed allow-list").
type entity struct {
	table        string
	textColumns  []string // free-text `q` LIKE target columns, plus attributes_json
	whereColumns map[string]bool
	rangeColumns map[string]bool
	selectCols   string
}

var spansEntity = entity{
	table:       rowstore.TableSpans,
	textColumns: []string{"service_name", "operation_name", "status", "trace_id"},
	whereColumns: map[string]bool{
		"trace_id": true, "span_id": true, "parent_span_id": true,
		"service_name": true, "operation_name": true, "status": true,
	},
	rangeColumns: map[string]bool{
		"start_time": true, "end_time": true, "duration_ms": true, "created_at": true,
	},
	selectCols: `id, drop_id, trace_id, span_id, parent_span_id, service_name, operation_name,
		start_time, end_time, duration_ms, status, attributes_json, created_at`,
}

var eventsEntity = entity{
	table:       rowstore.TableWideEvents,
	textColumns: []string{"service_name", "operation_type", "field_name", "outcome", "trace_id"},
	whereColumns: map[string]bool{
		"trace_id": true, "service_name": true, "operation_type": true,
		"field_name": true, "outcome": true, "user_id": true,
	},
	rangeColumns: map[string]bool{
		"duration_ms": true, "error_count": true, "rpc_call_count": true, "created_at": true,
	},
	selectCols: `id, drop_id, trace_id, service_name, operation_type, field_name, outcome,
		duration_ms, user_id, error_count, rpc_call_count, attributes_json, created_at`,
}

// compiled is a ready-to-run parameterized statement body: the WHERE
// conjunction (without its leading AND) and positional args in order.
type compiled struct {
	clause string
	args   []interface{}
}

// compile turns an Envelope into a WHERE conjunction against ent's
// allow-lists, per spec.md §4.E. dropID is always the first predicate.
func compile(ent entity, dropID string, e Envelope) (compiled, Envelope, error) {
	norm := e.normalize()

	var clauses []string
	var args []interface{}

	clauses = append(clauses, "drop_id = ?")
	args = append(args, dropID)

	if norm.Q != "" {
		var ors []string
		pattern := "%" + norm.Q + "%"
		for _, col := range ent.textColumns {
			ors = append(ors, col+" LIKE ?")
			args = append(args, pattern)
		}
		ors = append(ors, "attributes_json LIKE ?")
		args = append(args, pattern)
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	for col, val := range norm.Where {
		if !ent.whereColumns[col] {
			return compiled{}, norm, apperr.BadInput("query: column not allowed in where: " + col)
		}
		clauses = append(clauses, col+" = ?")
		args = append(args, val)
	}

	for col, r := range norm.Range {
		if !ent.rangeColumns[col] {
			return compiled{}, norm, apperr.BadInput("query: column not allowed in range: " + col)
		}
		if r.GTE != nil {
			clauses = append(clauses, col+" >= ?")
			args = append(args, *r.GTE)
		}
		if r.LTE != nil {
			clauses = append(clauses, col+" <= ?")
			args = append(args, *r.LTE)
		}
	}

	for _, pred := range norm.Attributes {
		if err := validateOp(pred.Op); err != nil {
			return compiled{}, norm, err
		}
		path := rowstore.JSONPathExpr("attributes_json", pred.Key)
		raw := valueOrEmpty(pred.Value)
		switch pred.Op {
		case OpExists:
			clauses = append(clauses, path+" IS NOT NULL")
		case OpEq:
			// json_extract returns an INTEGER/REAL storage class for a
			// JSON number; SQLite compares operands of different
			// storage classes by class rather than value, so a bare
			// `path = ?` against a numeric attribute never matches a
			// numeric-looking bound value. Cast both sides when the
			// value parses as a number; otherwise compare as text so
			// string equality (e.g. status="ok") is unaffected.
			if _, ok := parseNumeric(raw); ok {
				clauses = append(clauses, "CAST("+path+" AS REAL) = CAST(? AS REAL)")
			} else {
				clauses = append(clauses, path+" = ?")
			}
			args = append(args, raw)
		case OpLike:
			clauses = append(clauses, path+" LIKE ?")
			args = append(args, "%"+raw+"%")
		case OpGt:
			clauses = append(clauses, "CAST("+path+" AS REAL) > CAST(? AS REAL)")
			args = append(args, raw)
		case OpGte:
			clauses = append(clauses, "CAST("+path+" AS REAL) >= CAST(? AS REAL)")
			args = append(args, raw)
		case OpLt:
			clauses = append(clauses, "CAST("+path+" AS REAL) < CAST(? AS REAL)")
			args = append(args, raw)
		case OpLte:
			clauses = append(clauses, "CAST("+path+" AS REAL) <= CAST(? AS REAL)")
			args = append(args, raw)
		}
	}

	return compiled{clause: strings.Join(clauses, " AND "), args: args}, norm, nil
}

func valueOrEmpty(v *AttrValue) string {
	if v == nil {
		return ""
	}
	return string(*v)
}

func parseNumeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
