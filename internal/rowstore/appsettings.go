package rowstore

import (
	"database/sql"

	"github.com/raphael-dev/raphael/internal/apperr"
)

// AppSetting is a single key/value row used for allowlist policy and
// OAuth defaults (spec.md §3).
type AppSetting struct {
	Key       string
	Value     string
	UpdatedAt int64
}

// AppSettingGet reads one setting, returning (nil, nil) when absent.
func (d *Database) AppSettingGet(key string) (*AppSetting, error) {
	var s AppSetting
	err := d.db.QueryRow(`SELECT key, value, updated_at FROM app_settings WHERE key = ?`, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	return &s, nil
}

// AppSettingSet upserts a setting value.
func (d *Database) AppSettingSet(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, nowMS())
	return apperr.InternalFrom(err)
}

// AppSettingSetIfAbsent seeds a default value only when the key is not
// already present — used for idempotent YAML-seed loading at startup
// (internal/config).
func (d *Database) AppSettingSetIfAbsent(key, value string) error {
	existing, err := d.AppSettingGet(key)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return d.AppSettingSet(key, value)
}
