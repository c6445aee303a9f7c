package rowstore

import "github.com/raphael-dev/raphael/internal/apperr"

// DropStats is the summary the UI's overview panel polls (spec.md §4.H
// GET /api/stats).
type DropStats struct {
	SpanCount      int64
	EventCount     int64
	TraceCount     int64
	OldestSpanAt   *int64
	NewestSpanAt   *int64
}

// Stats aggregates counts for a single Drop.
func (d *Database) Stats(dropID string) (*DropStats, error) {
	var s DropStats
	err := d.db.QueryRow(`SELECT COUNT(*), MIN(created_at), MAX(created_at) FROM spans WHERE drop_id = ?`, dropID).
		Scan(&s.SpanCount, &s.OldestSpanAt, &s.NewestSpanAt)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM wide_events WHERE drop_id = ?`, dropID).Scan(&s.EventCount); err != nil {
		return nil, apperr.InternalFrom(err)
	}
	if err := d.db.QueryRow(`SELECT COUNT(DISTINCT trace_id) FROM spans WHERE drop_id = ?`, dropID).Scan(&s.TraceCount); err != nil {
		return nil, apperr.InternalFrom(err)
	}
	return &s, nil
}

// ClearDrop deletes every span and wide event for a Drop, leaving the
// Drop itself (and its retention/permission rows) intact — distinct
// from DeleteDrop, which removes the Drop entirely (spec.md §4.H
// DELETE /api/clear).
func (d *Database) ClearDrop(dropID string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return apperr.InternalFrom(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM spans WHERE drop_id = ?`, dropID); err != nil {
		return apperr.InternalFrom(err)
	}
	if _, err := tx.Exec(`DELETE FROM wide_events WHERE drop_id = ?`, dropID); err != nil {
		return apperr.InternalFrom(err)
	}
	return apperr.InternalFrom(tx.Commit())
}
