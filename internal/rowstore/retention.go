package rowstore

import "github.com/raphael-dev/raphael/internal/apperr"

// Table names accepted by DeleteOlderThan.
const (
	TableSpans      = "spans"
	TableWideEvents = "wide_events"
)

// DeleteOlderThan deletes at most batchLimit rows from table whose
// created_at is below cutoff, for the given Drop, using a bounded
// subquery rather than an unbounded DELETE so each call holds the
// write lock only briefly (spec.md §4.A). Returns the number of rows
// actually deleted.
func (d *Database) DeleteOlderThan(dropID, table string, cutoffMS int64, batchLimit int) (int64, error) {
	if table != TableSpans && table != TableWideEvents {
		return 0, apperr.Internal("rowstore: unknown table for retention delete")
	}

	query := `DELETE FROM ` + table + ` WHERE id IN (
		SELECT id FROM ` + table + ` WHERE drop_id = ? AND created_at < ? ORDER BY created_at ASC LIMIT ?
	)`
	res, err := d.db.Exec(query, dropID, cutoffMS, batchLimit)
	if err != nil {
		return 0, apperr.InternalFrom(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.InternalFrom(err)
	}
	return n, nil
}
