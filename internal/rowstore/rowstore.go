// Package rowstore is Raphael's embedded, transactional row store: an
// on-disk SQLite database opened in WAL mode, with additive schema
// migrations, batched writes, and bounded range deletes.
//
// The shape (Config, *Database wrapping *sql.DB, ordered []string
// migrations) follows the teacher's PostgreSQL connection layer; only
// the driver and the tuning knobs are SQLite-specific, since the spec
// itself describes WAL mode, a busy-wait timeout, and a WAL
// auto-checkpoint page threshold — concepts that have no Postgres
// equivalent.
package rowstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/raphael-dev/raphael/internal/logger"
)

// Config holds the engine tuning knobs named in spec.md §6.
type Config struct {
	Path                      string
	Synchronous               string // full|normal|off
	BusyTimeoutMS             int
	WALAutocheckpointPages    int
}

// Database wraps the open *sql.DB handle.
type Database struct {
	db *sql.DB
}

// Open creates the data directory if needed and opens the SQLite
// database with WAL mode, the configured synchronous level, busy
// timeout, and WAL auto-checkpoint threshold, grounded on
// other_examples' mattn/go-sqlite3 PRAGMA-query-string pattern.
func Open(cfg Config) (*Database, error) {
	if cfg.Synchronous == "" {
		cfg.Synchronous = "normal"
	}
	if cfg.BusyTimeoutMS == 0 {
		cfg.BusyTimeoutMS = 5000
	}
	if cfg.WALAutocheckpointPages == 0 {
		cfg.WALAutocheckpointPages = 1000
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("rowstore: creating data dir: %w", err)
		}
	}

	opts := []string{
		"_foreign_keys=1",
		"_journal_mode=WAL",
		fmt.Sprintf("_synchronous=%s", cfg.Synchronous),
		fmt.Sprintf("_busy_timeout=%d", cfg.BusyTimeoutMS),
		fmt.Sprintf("_wal_autocheckpoint=%d", cfg.WALAutocheckpointPages),
	}
	dsn := cfg.Path + "?" + strings.Join(opts, "&")

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("rowstore: opening database: %w", err)
	}

	// SQLite has a single writer; keep the pool small so writers queue
	// on the driver's own busy-timeout rather than piling up connections.
	sqlDB.SetMaxOpenConns(8)
	sqlDB.SetMaxIdleConns(4)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("rowstore: pinging database: %w", err)
	}

	return &Database{db: sqlDB}, nil
}

// OpenForTesting wraps an already-open *sql.DB as-is; none of Open's
// pragmas or pool settings are applied.
func OpenForTesting(db *sql.DB) *Database {
	return &Database{db: db}
}

// DB returns the underlying handle for ad-hoc statements.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Migrate creates the schema if missing and runs additive migrations,
// then ensures the reserved "default" Drop exists (spec.md §3: at least
// one Drop exists at all times).
func (d *Database) Migrate() error {
	log := logger.Database()

	for i, stmt := range schemaStatements {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("rowstore: schema statement %d failed: %w", i, err)
		}
	}

	for i, m := range additiveMigrations {
		applied, err := m.needed(d.db)
		if err != nil {
			return fmt.Errorf("rowstore: migration %d check failed: %w", i, err)
		}
		if !applied {
			continue
		}
		if _, err := d.db.Exec(m.stmt); err != nil {
			return fmt.Errorf("rowstore: migration %d failed: %w", i, err)
		}
		log.Info().Int("migration", i).Msg("applied additive migration")
	}

	if err := d.ensureDefaultDrop(); err != nil {
		return fmt.Errorf("rowstore: ensuring default drop: %w", err)
	}

	return nil
}
