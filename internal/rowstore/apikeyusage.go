package rowstore

import "github.com/raphael-dev/raphael/internal/apperr"

// ApiKeyUsage mirrors spec.md §3's append-only usage log.
type ApiKeyUsage struct {
	ID        int64
	ApiKeyID  string
	Method    string
	Path      string
	Status    int
	DropID    *string
	IP        string
	UserAgent string
	CreatedAt int64
}

// LogApiKeyUsage appends one usage row. Called exactly once per
// API-key-authenticated request (spec.md §9 design note (b)).
func (d *Database) LogApiKeyUsage(u *ApiKeyUsage) error {
	_, err := d.db.Exec(`
		INSERT INTO api_key_usage (api_key_id, method, path, status, drop_id, ip, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ApiKeyID, u.Method, u.Path, u.Status, u.DropID, u.IP, u.UserAgent, nowMS())
	return apperr.InternalFrom(err)
}

// ListApiKeyUsage returns the most recent usage rows for a key, newest first.
func (d *Database) ListApiKeyUsage(apiKeyID string, limit int) ([]*ApiKeyUsage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.Query(`
		SELECT id, api_key_id, method, path, status, drop_id, ip, user_agent, created_at
		FROM api_key_usage WHERE api_key_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, apiKeyID, limit)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*ApiKeyUsage
	for rows.Next() {
		var u ApiKeyUsage
		if err := rows.Scan(&u.ID, &u.ApiKeyID, &u.Method, &u.Path, &u.Status, &u.DropID, &u.IP, &u.UserAgent, &u.CreatedAt); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
