package rowstore

// schemaStatements creates every table and index Raphael needs if it
// does not already exist. CREATE TABLE/INDEX IF NOT EXISTS is already
// idempotent in SQLite, so these need no has_column-style guard; only
// column additions to existing tables (additiveMigrations, below) do.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS drops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL COLLATE NOCASE,
		label TEXT,
		created_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS drop_retention (
		drop_id TEXT PRIMARY KEY REFERENCES drops(id) ON DELETE CASCADE,
		traces_retention_ms INTEGER,
		events_retention_ms INTEGER,
		updated_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS spans (
		id TEXT PRIMARY KEY,
		drop_id TEXT NOT NULL,
		trace_id TEXT NOT NULL,
		span_id TEXT NOT NULL,
		parent_span_id TEXT,
		service_name TEXT NOT NULL,
		operation_name TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER,
		duration_ms INTEGER,
		status TEXT NOT NULL,
		attributes_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_spans_drop_created ON spans(drop_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_spans_drop_trace ON spans(drop_id, trace_id)`,
	`CREATE INDEX IF NOT EXISTS idx_spans_service_name ON spans(service_name)`,
	`CREATE INDEX IF NOT EXISTS idx_spans_status ON spans(status)`,

	`CREATE TABLE IF NOT EXISTS wide_events (
		id TEXT PRIMARY KEY,
		drop_id TEXT NOT NULL,
		trace_id TEXT,
		service_name TEXT NOT NULL,
		operation_type TEXT,
		field_name TEXT,
		outcome TEXT NOT NULL,
		duration_ms INTEGER,
		user_id TEXT,
		error_count INTEGER NOT NULL DEFAULT 0,
		rpc_call_count INTEGER NOT NULL DEFAULT 0,
		attributes_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_drop_created ON wide_events(drop_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_events_drop_trace ON wide_events(drop_id, trace_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_service_name ON wide_events(service_name)`,
	`CREATE INDEX IF NOT EXISTS idx_events_outcome ON wide_events(outcome)`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		disabled INTEGER NOT NULL DEFAULT 0,
		password_hash TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		last_login_at INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS user_drop_permissions (
		user_id TEXT NOT NULL,
		drop_id TEXT NOT NULL,
		can_ingest INTEGER NOT NULL DEFAULT 0,
		can_query INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, drop_id)
	)`,

	`CREATE TABLE IF NOT EXISTS service_accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_by_user_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (created_by_user_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		service_account_id TEXT NOT NULL REFERENCES service_accounts(id) ON DELETE CASCADE,
		name TEXT,
		key_prefix TEXT NOT NULL,
		key_hash TEXT UNIQUE NOT NULL,
		created_by_user_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		revoked_at INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS api_key_permissions (
		api_key_id TEXT NOT NULL REFERENCES api_keys(id) ON DELETE CASCADE,
		drop_id TEXT NOT NULL,
		can_ingest INTEGER NOT NULL DEFAULT 0,
		can_query INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (api_key_id, drop_id)
	)`,

	`CREATE TABLE IF NOT EXISTS api_key_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		api_key_id TEXT NOT NULL,
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		status INTEGER NOT NULL,
		drop_id TEXT,
		ip TEXT,
		user_agent TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_key_usage_key ON api_key_usage(api_key_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS dashboards (
		id TEXT PRIMARY KEY,
		drop_id TEXT NOT NULL,
		name TEXT NOT NULL,
		spec_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dashboards_drop ON dashboards(drop_id)`,
}
