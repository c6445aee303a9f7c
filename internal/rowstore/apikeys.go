package rowstore

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/raphael-dev/raphael/internal/apperr"
)

// ApiKey mirrors spec.md §3. Only KeyPrefix is ever displayed after
// creation; the raw secret is generated by internal/auth and never
// persisted — this row stores its hash only.
type ApiKey struct {
	ID               string
	ServiceAccountID string
	Name             string
	KeyPrefix        string
	KeyHash          string
	CreatedByUserID  string
	CreatedAt        int64
	RevokedAt        *int64
}

// CreateApiKey inserts a new key row. keyHash is the SHA-256 hex digest
// of the raw token; the caller is responsible for returning the raw
// token to the client exactly once.
func (d *Database) CreateApiKey(serviceAccountID, name, keyPrefix, keyHash, createdByUserID string) (*ApiKey, error) {
	id := uuid.NewString()
	now := nowMS()
	_, err := d.db.Exec(`
		INSERT INTO api_keys (id, service_account_id, name, key_prefix, key_hash, created_by_user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, serviceAccountID, name, keyPrefix, keyHash, createdByUserID, now)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, apperr.Conflict("api key hash collision, retry")
		}
		return nil, apperr.InternalFrom(err)
	}
	return &ApiKey{ID: id, ServiceAccountID: serviceAccountID, Name: name, KeyPrefix: keyPrefix,
		KeyHash: keyHash, CreatedByUserID: createdByUserID, CreatedAt: now}, nil
}

func scanApiKey(row interface{ Scan(...any) error }) (*ApiKey, error) {
	var k ApiKey
	if err := row.Scan(&k.ID, &k.ServiceAccountID, &k.Name, &k.KeyPrefix, &k.KeyHash, &k.CreatedByUserID, &k.CreatedAt, &k.RevokedAt); err != nil {
		return nil, err
	}
	return &k, nil
}

const apiKeyColumns = `id, service_account_id, name, key_prefix, key_hash, created_by_user_id, created_at, revoked_at`

// ApiKeyByHash looks up a non-revoked key by its SHA-256 hash. Used on
// every request authenticated by API key.
func (d *Database) ApiKeyByHash(keyHash string) (*ApiKey, error) {
	row := d.db.QueryRow(`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = ? AND revoked_at IS NULL`, keyHash)
	k, err := scanApiKey(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	return k, nil
}

// ApiKeyByID looks up a key regardless of revocation state.
func (d *Database) ApiKeyByID(id string) (*ApiKey, error) {
	row := d.db.QueryRow(`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id)
	k, err := scanApiKey(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	return k, nil
}

// ListApiKeysByServiceAccount lists every key (including revoked) for a
// service account, newest first.
func (d *Database) ListApiKeysByServiceAccount(serviceAccountID string) ([]*ApiKey, error) {
	rows, err := d.db.Query(`SELECT `+apiKeyColumns+` FROM api_keys WHERE service_account_id = ? ORDER BY created_at DESC`, serviceAccountID)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*ApiKey
	for rows.Next() {
		k, err := scanApiKey(rows)
		if err != nil {
			return nil, apperr.InternalFrom(err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// RevokeApiKey soft-deletes a key by stamping revoked_at.
func (d *Database) RevokeApiKey(id string) error {
	res, err := d.db.Exec(`UPDATE api_keys SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`, nowMS(), id)
	if err != nil {
		return apperr.InternalFrom(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("api key")
	}
	return nil
}
