package query

import (
	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// Engine runs queryTraces/queryEvents and the trace drill-down directly
// against the Row Store's database handle (spec.md §4.E).
type Engine struct {
	db *rowstore.Database
}

func NewEngine(db *rowstore.Database) *Engine {
	return &Engine{db: db}
}

// QuerySpans runs the compiled envelope against the spans table.
func (eng *Engine) QuerySpans(dropID string, e Envelope) ([]*rowstore.Span, error) {
	c, norm, err := compile(spansEntity, dropID, e)
	if err != nil {
		return nil, err
	}

	stmt := `SELECT ` + spansEntity.selectCols + ` FROM ` + spansEntity.table +
		` WHERE ` + c.clause + ` ORDER BY created_at ` + orderSQL(norm.Order) + ` LIMIT ? OFFSET ?`
	args := append(append([]interface{}{}, c.args...), norm.Limit, norm.Offset)

	rows, err := eng.db.DB().Query(stmt, args...)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*rowstore.Span
	for rows.Next() {
		var s rowstore.Span
		if err := rows.Scan(&s.ID, &s.DropID, &s.TraceID, &s.SpanID, &s.ParentSpanID, &s.ServiceName,
			&s.OperationName, &s.StartTime, &s.EndTime, &s.DurationMS, &s.Status, &s.AttributesJSON, &s.CreatedAt); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		out = append(out, &s)
	}
	return out, apperr.InternalFrom(rows.Err())
}

// QueryEvents runs the compiled envelope against the wide_events table.
func (eng *Engine) QueryEvents(dropID string, e Envelope) ([]*rowstore.WideEvent, error) {
	c, norm, err := compile(eventsEntity, dropID, e)
	if err != nil {
		return nil, err
	}

	stmt := `SELECT ` + eventsEntity.selectCols + ` FROM ` + eventsEntity.table +
		` WHERE ` + c.clause + ` ORDER BY created_at ` + orderSQL(norm.Order) + ` LIMIT ? OFFSET ?`
	args := append(append([]interface{}{}, c.args...), norm.Limit, norm.Offset)

	rows, err := eng.db.DB().Query(stmt, args...)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*rowstore.WideEvent
	for rows.Next() {
		var e rowstore.WideEvent
		if err := rows.Scan(&e.ID, &e.DropID, &e.TraceID, &e.ServiceName, &e.OperationType, &e.FieldName,
			&e.Outcome, &e.DurationMS, &e.UserID, &e.ErrorCount, &e.RPCCallCount, &e.AttributesJSON, &e.CreatedAt); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		out = append(out, &e)
	}
	return out, apperr.InternalFrom(rows.Err())
}

// TraceDetail is the drill-down response shape for GET /v1/query/traces/:id.
type TraceDetail struct {
	Spans  []*rowstore.Span      `json:"spans"`
	Events []*rowstore.WideEvent `json:"events"`
}

// TraceDrillDown returns every span and wide event sharing traceID
// within dropID, spans ordered by start_time asc and events by
// created_at asc (spec.md §4.E).
func (eng *Engine) TraceDrillDown(dropID, traceID string) (*TraceDetail, error) {
	spans, err := eng.db.SpansByTrace(dropID, traceID)
	if err != nil {
		return nil, err
	}
	events, err := eng.db.EventsByTrace(dropID, traceID)
	if err != nil {
		return nil, err
	}
	return &TraceDetail{Spans: spans, Events: events}, nil
}

func orderSQL(order string) string {
	if order == "asc" {
		return "ASC"
	}
	return "DESC"
}
