package rowstore

import (
	"strings"

	"github.com/raphael-dev/raphael/internal/apperr"
)

// Span mirrors spec.md §3's trace-span entity.
type Span struct {
	ID             string
	DropID         string
	TraceID        string
	SpanID         string
	ParentSpanID   *string
	ServiceName    string
	OperationName  string
	StartTime      int64
	EndTime        *int64
	DurationMS     *int64
	Status         string
	AttributesJSON string
	CreatedAt      int64
}

// InsertSpans writes every row within a single transaction — one fsync
// boundary, rows applied in receipt order, all-or-nothing (spec.md §4.A).
func (d *Database) InsertSpans(rows []*Span) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return apperr.InternalFrom(err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO spans (id, drop_id, trace_id, span_id, parent_span_id, service_name,
			operation_name, start_time, end_time, duration_ms, status, attributes_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperr.InternalFrom(err)
	}
	defer stmt.Close()

	for _, s := range rows {
		if _, err := stmt.Exec(s.ID, s.DropID, s.TraceID, s.SpanID, s.ParentSpanID, s.ServiceName,
			s.OperationName, s.StartTime, s.EndTime, s.DurationMS, s.Status, s.AttributesJSON, s.CreatedAt); err != nil {
			return mapInsertErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.InternalFrom(err)
	}
	return nil
}

func scanSpan(row interface{ Scan(...any) error }) (*Span, error) {
	var s Span
	if err := row.Scan(&s.ID, &s.DropID, &s.TraceID, &s.SpanID, &s.ParentSpanID, &s.ServiceName,
		&s.OperationName, &s.StartTime, &s.EndTime, &s.DurationMS, &s.Status, &s.AttributesJSON, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// SpansByTrace returns every span for a trace_id within a Drop, ordered
// by start_time ascending (spec.md §4.E trace drill-down).
func (d *Database) SpansByTrace(dropID, traceID string) ([]*Span, error) {
	rows, err := d.db.Query(`
		SELECT id, drop_id, trace_id, span_id, parent_span_id, service_name, operation_name,
			start_time, end_time, duration_ms, status, attributes_json, created_at
		FROM spans WHERE drop_id = ? AND trace_id = ? ORDER BY start_time ASC`, dropID, traceID)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*Span
	for rows.Next() {
		s, err := scanSpan(rows)
		if err != nil {
			return nil, apperr.InternalFrom(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func mapInsertErr(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueConstraintErr(err) {
		return apperr.Conflict("duplicate row")
	}
	return apperr.InternalFrom(err)
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
