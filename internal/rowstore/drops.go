package rowstore

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/raphael-dev/raphael/internal/apperr"
)

// DefaultDropName is the reserved Drop that always exists (spec.md §3).
const DefaultDropName = "default"

const (
	defaultTracesRetentionMS = 3 * 24 * 60 * 60 * 1000
	defaultEventsRetentionMS = 7 * 24 * 60 * 60 * 1000
)

// Drop mirrors spec.md §3's Drop entity. ID is the decimal string of an
// autoincrement integer — resolveDrop's "all-digits input" rule
// (spec.md §4.C) depends on ids actually being numeric.
type Drop struct {
	ID        string
	Name      string
	Label     string
	CreatedAt int64
}

// DropRetention mirrors spec.md §3's DropRetention entity. Nil fields
// mean pruning is disabled for that stream.
type DropRetention struct {
	DropID            string
	TracesRetentionMS *int64
	EventsRetentionMS *int64
	UpdatedAt         int64
}

func nowMS() int64 { return time.Now().UnixMilli() }

func (d *Database) ensureDefaultDrop() error {
	var id int64
	err := d.db.QueryRow(`SELECT id FROM drops WHERE name = ? COLLATE NOCASE`, DefaultDropName).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	now := nowMS()
	res, err := d.db.Exec(`INSERT INTO drops (name, label, created_at) VALUES (?, ?, ?)`, DefaultDropName, "", now)
	if err != nil {
		return err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`INSERT INTO drop_retention (drop_id, traces_retention_ms, events_retention_ms, updated_at) VALUES (?, ?, ?, ?)`,
		strconv.FormatInt(id, 10), defaultTracesRetentionMS, defaultEventsRetentionMS, now)
	return err
}

// DropByID looks up a Drop by its decimal id string. Non-numeric input
// is never a valid id and reports not-found rather than erroring, so
// callers can try it unconditionally.
func (d *Database) DropByID(id string) (*Drop, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, nil
	}
	return d.scanDrop(`SELECT id, name, label, created_at FROM drops WHERE id = ?`, n)
}

// DropByName looks up a Drop by case-insensitive name.
func (d *Database) DropByName(name string) (*Drop, error) {
	return d.scanDrop(`SELECT id, name, label, created_at FROM drops WHERE name = ? COLLATE NOCASE`, name)
}

func (d *Database) scanDrop(query string, arg interface{}) (*Drop, error) {
	var drop Drop
	var id int64
	err := d.db.QueryRow(query, arg).Scan(&id, &drop.Name, &drop.Label, &drop.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	drop.ID = strconv.FormatInt(id, 10)
	return &drop, nil
}

// ListDrops returns every Drop, oldest first.
func (d *Database) ListDrops() ([]*Drop, error) {
	rows, err := d.db.Query(`SELECT id, name, label, created_at FROM drops ORDER BY created_at ASC`)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*Drop
	for rows.Next() {
		var drop Drop
		var id int64
		if err := rows.Scan(&id, &drop.Name, &drop.Label, &drop.CreatedAt); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		drop.ID = strconv.FormatInt(id, 10)
		out = append(out, &drop)
	}
	return out, rows.Err()
}

// ListDropsForUser returns only Drops the user has any permission row on.
func (d *Database) ListDropsForUser(userID string) ([]*Drop, error) {
	rows, err := d.db.Query(`
		SELECT d.id, d.name, d.label, d.created_at
		FROM drops d
		JOIN user_drop_permissions p ON p.drop_id = CAST(d.id AS TEXT)
		WHERE p.user_id = ? AND (p.can_ingest = 1 OR p.can_query = 1)
		ORDER BY d.created_at ASC`, userID)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*Drop
	for rows.Next() {
		var drop Drop
		var id int64
		if err := rows.Scan(&id, &drop.Name, &drop.Label, &drop.CreatedAt); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		drop.ID = strconv.FormatInt(id, 10)
		out = append(out, &drop)
	}
	return out, rows.Err()
}

// CreateDrop inserts a new Drop and seeds its default retention row.
func (d *Database) CreateDrop(name, label string) (*Drop, error) {
	existing, err := d.DropByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(fmt.Sprintf("drop %q already exists", name))
	}

	now := nowMS()
	tx, err := d.db.Begin()
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO drops (name, label, created_at) VALUES (?, ?, ?)`, name, label, now)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	idStr := strconv.FormatInt(id, 10)
	if _, err := tx.Exec(`INSERT INTO drop_retention (drop_id, traces_retention_ms, events_retention_ms, updated_at) VALUES (?, ?, ?, ?)`,
		idStr, defaultTracesRetentionMS, defaultEventsRetentionMS, now); err != nil {
		return nil, apperr.InternalFrom(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.InternalFrom(err)
	}

	return &Drop{ID: idStr, Name: name, Label: label, CreatedAt: now}, nil
}

// SetDropLabel updates a Drop's display label.
func (d *Database) SetDropLabel(dropID, label string) error {
	res, err := d.db.Exec(`UPDATE drops SET label = ? WHERE id = ?`, label, dropID)
	if err != nil {
		return apperr.InternalFrom(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("drop")
	}
	return nil
}

// DropRetentionFor reads the retention row for a Drop.
func (d *Database) DropRetentionFor(dropID string) (*DropRetention, error) {
	var r DropRetention
	var traces, events sql.NullInt64
	err := d.db.QueryRow(`SELECT drop_id, traces_retention_ms, events_retention_ms, updated_at FROM drop_retention WHERE drop_id = ?`, dropID).
		Scan(&r.DropID, &traces, &events, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	if traces.Valid {
		r.TracesRetentionMS = &traces.Int64
	}
	if events.Valid {
		r.EventsRetentionMS = &events.Int64
	}
	return &r, nil
}

// SetDropRetention writes new retention values; 0 or nil disables
// pruning for that stream (spec.md §3).
func (d *Database) SetDropRetention(dropID string, tracesMS, eventsMS *int64) error {
	var t, e interface{}
	if tracesMS != nil && *tracesMS > 0 {
		t = *tracesMS
	}
	if eventsMS != nil && *eventsMS > 0 {
		e = *eventsMS
	}

	_, err := d.db.Exec(`
		INSERT INTO drop_retention (drop_id, traces_retention_ms, events_retention_ms, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(drop_id) DO UPDATE SET
			traces_retention_ms = excluded.traces_retention_ms,
			events_retention_ms = excluded.events_retention_ms,
			updated_at = excluded.updated_at`,
		dropID, t, e, nowMS())
	if err != nil {
		return apperr.InternalFrom(err)
	}
	return nil
}

// CountDrops returns the total number of Drops.
func (d *Database) CountDrops() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM drops`).Scan(&n); err != nil {
		return 0, apperr.InternalFrom(err)
	}
	return n, nil
}

// DeleteDrop cascades across every Drop-scoped table inside one
// transaction, nullifying drop_id on usage rows instead of deleting
// them (spec.md §3 Ownership).
func (d *Database) DeleteDrop(dropID string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return apperr.InternalFrom(err)
	}
	defer tx.Rollback()

	stmts := []struct {
		query string
		args  []interface{}
	}{
		{`DELETE FROM spans WHERE drop_id = ?`, []interface{}{dropID}},
		{`DELETE FROM wide_events WHERE drop_id = ?`, []interface{}{dropID}},
		{`DELETE FROM dashboards WHERE drop_id = ?`, []interface{}{dropID}},
		{`DELETE FROM drop_retention WHERE drop_id = ?`, []interface{}{dropID}},
		{`DELETE FROM user_drop_permissions WHERE drop_id = ?`, []interface{}{dropID}},
		{`DELETE FROM api_key_permissions WHERE drop_id = ?`, []interface{}{dropID}},
		{`UPDATE api_key_usage SET drop_id = NULL WHERE drop_id = ?`, []interface{}{dropID}},
		{`DELETE FROM drops WHERE id = ?`, []interface{}{dropID}},
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s.query, s.args...); err != nil {
			return apperr.InternalFrom(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.InternalFrom(err)
	}
	return nil
}
