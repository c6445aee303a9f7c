package rowstore

import (
	"database/sql"

	"github.com/raphael-dev/raphael/internal/apperr"
)

// UserDropPermission mirrors spec.md §3. Rows with both flags false
// must be absent — callers delete instead of storing false/false.
type UserDropPermission struct {
	UserID    string
	DropID    string
	CanIngest bool
	CanQuery  bool
}

// UserDropPermissionFor looks up a single (user, drop) permission row.
func (d *Database) UserDropPermissionFor(userID, dropID string) (*UserDropPermission, error) {
	var p UserDropPermission
	var ingest, query int
	err := d.db.QueryRow(`SELECT user_id, drop_id, can_ingest, can_query FROM user_drop_permissions WHERE user_id = ? AND drop_id = ?`,
		userID, dropID).Scan(&p.UserID, &p.DropID, &ingest, &query)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	p.CanIngest, p.CanQuery = ingest != 0, query != 0
	return &p, nil
}

// ListUserDropPermissions returns every Drop permission row for a user.
func (d *Database) ListUserDropPermissions(userID string) ([]*UserDropPermission, error) {
	rows, err := d.db.Query(`SELECT user_id, drop_id, can_ingest, can_query FROM user_drop_permissions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*UserDropPermission
	for rows.Next() {
		var p UserDropPermission
		var ingest, query int
		if err := rows.Scan(&p.UserID, &p.DropID, &ingest, &query); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		p.CanIngest, p.CanQuery = ingest != 0, query != 0
		out = append(out, &p)
	}
	return out, rows.Err()
}

// SetUserDropPermission upserts the permission row, deleting it when
// both flags end up false (spec.md §3 invariant).
func (d *Database) SetUserDropPermission(userID, dropID string, canIngest, canQuery bool) error {
	if !canIngest && !canQuery {
		_, err := d.db.Exec(`DELETE FROM user_drop_permissions WHERE user_id = ? AND drop_id = ?`, userID, dropID)
		return apperr.InternalFrom(err)
	}
	_, err := d.db.Exec(`
		INSERT INTO user_drop_permissions (user_id, drop_id, can_ingest, can_query)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, drop_id) DO UPDATE SET can_ingest = excluded.can_ingest, can_query = excluded.can_query`,
		userID, dropID, boolToInt(canIngest), boolToInt(canQuery))
	return apperr.InternalFrom(err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ApiKeyPermission mirrors spec.md §3, one row per (key, drop).
type ApiKeyPermission struct {
	ApiKeyID  string
	DropID    string
	CanIngest bool
	CanQuery  bool
}

// ApiKeyPermissionFor looks up a single (key, drop) capability row.
func (d *Database) ApiKeyPermissionFor(apiKeyID, dropID string) (*ApiKeyPermission, error) {
	var p ApiKeyPermission
	var ingest, query int
	err := d.db.QueryRow(`SELECT api_key_id, drop_id, can_ingest, can_query FROM api_key_permissions WHERE api_key_id = ? AND drop_id = ?`,
		apiKeyID, dropID).Scan(&p.ApiKeyID, &p.DropID, &ingest, &query)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	p.CanIngest, p.CanQuery = ingest != 0, query != 0
	return &p, nil
}

// ListApiKeyPermissions returns every Drop capability for an API key.
func (d *Database) ListApiKeyPermissions(apiKeyID string) ([]*ApiKeyPermission, error) {
	rows, err := d.db.Query(`SELECT api_key_id, drop_id, can_ingest, can_query FROM api_key_permissions WHERE api_key_id = ?`, apiKeyID)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*ApiKeyPermission
	for rows.Next() {
		var p ApiKeyPermission
		var ingest, query int
		if err := rows.Scan(&p.ApiKeyID, &p.DropID, &ingest, &query); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		p.CanIngest, p.CanQuery = ingest != 0, query != 0
		out = append(out, &p)
	}
	return out, rows.Err()
}

// SetApiKeyPermission upserts one capability row for an API key.
func (d *Database) SetApiKeyPermission(apiKeyID, dropID string, canIngest, canQuery bool) error {
	if !canIngest && !canQuery {
		_, err := d.db.Exec(`DELETE FROM api_key_permissions WHERE api_key_id = ? AND drop_id = ?`, apiKeyID, dropID)
		return apperr.InternalFrom(err)
	}
	_, err := d.db.Exec(`
		INSERT INTO api_key_permissions (api_key_id, drop_id, can_ingest, can_query)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(api_key_id, drop_id) DO UPDATE SET can_ingest = excluded.can_ingest, can_query = excluded.can_query`,
		apiKeyID, dropID, boolToInt(canIngest), boolToInt(canQuery))
	return apperr.InternalFrom(err)
}
