package rowstore

import (
	"database/sql"
	"fmt"
	"strings"
)

// additiveMigration is one guarded, idempotent schema change: a column
// addition applied only when hasColumn reports it missing. This is the
// has_column-style inspection spec.md §9 calls for — SQLite's ALTER
// TABLE ADD COLUMN has no IF NOT EXISTS clause, unlike Postgres, so the
// guard has to be expressed in Go rather than SQL.
type additiveMigration struct {
	table  string
	column string
	stmt   string
}

func (m additiveMigration) needed(db *sql.DB) (bool, error) {
	has, err := hasColumn(db, m.table, m.column)
	if err != nil {
		return false, err
	}
	return !has, nil
}

// additiveMigrations is the ordered list of backward-compatible column
// additions. Empty today (the schema above already has every column a
// fresh install needs) but kept as the seam future columns hang off —
// exactly the teacher's "ALTER TABLE ... ADD COLUMN IF NOT EXISTS"
// idiom, translated to SQLite's guard-then-alter shape.
var additiveMigrations = []additiveMigration{}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notNull    int
			dfltValue  sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &primaryKey); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// tableSQLContains checks sqlite_master's stored CREATE TABLE text for
// a substring — the other schema-inspection primitive spec.md §9 names,
// useful for guarding index/constraint additions that hasColumn can't
// express.
func tableSQLContains(db *sql.DB, table, substr string) (bool, error) {
	var sqlText string
	err := db.QueryRow(`SELECT sql FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&sqlText)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.Contains(sqlText, substr), nil
}
