package rowstore

import "github.com/raphael-dev/raphael/internal/apperr"

// WideEvent mirrors spec.md §3's WideEvent entity.
type WideEvent struct {
	ID             string
	DropID         string
	TraceID        *string
	ServiceName    string
	OperationType  *string
	FieldName      *string
	Outcome        string
	DurationMS     *int64
	UserID         *string
	ErrorCount     int64
	RPCCallCount   int64
	AttributesJSON string
	CreatedAt      int64
}

// InsertEvents writes every row within a single transaction, identical
// discipline to InsertSpans (spec.md §4.A).
func (d *Database) InsertEvents(rows []*WideEvent) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return apperr.InternalFrom(err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO wide_events (id, drop_id, trace_id, service_name, operation_type, field_name,
			outcome, duration_ms, user_id, error_count, rpc_call_count, attributes_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperr.InternalFrom(err)
	}
	defer stmt.Close()

	for _, e := range rows {
		if _, err := stmt.Exec(e.ID, e.DropID, e.TraceID, e.ServiceName, e.OperationType, e.FieldName,
			e.Outcome, e.DurationMS, e.UserID, e.ErrorCount, e.RPCCallCount, e.AttributesJSON, e.CreatedAt); err != nil {
			return mapInsertErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.InternalFrom(err)
	}
	return nil
}

// EventsByTrace returns every wide event for a trace_id within a Drop,
// ordered by created_at ascending (spec.md §4.E trace drill-down).
func (d *Database) EventsByTrace(dropID, traceID string) ([]*WideEvent, error) {
	rows, err := d.db.Query(`
		SELECT id, drop_id, trace_id, service_name, operation_type, field_name, outcome,
			duration_ms, user_id, error_count, rpc_call_count, attributes_json, created_at
		FROM wide_events WHERE drop_id = ? AND trace_id = ? ORDER BY created_at ASC`, dropID, traceID)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*WideEvent
	for rows.Next() {
		var e WideEvent
		if err := rows.Scan(&e.ID, &e.DropID, &e.TraceID, &e.ServiceName, &e.OperationType, &e.FieldName,
			&e.Outcome, &e.DurationMS, &e.UserID, &e.ErrorCount, &e.RPCCallCount, &e.AttributesJSON, &e.CreatedAt); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
