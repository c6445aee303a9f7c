package rowstore

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/raphael-dev/raphael/internal/apperr"
)

// ServiceAccount mirrors spec.md §3. Invariant: (created_by_user_id,
// name) unique — names are scoped per owner.
type ServiceAccount struct {
	ID              string
	Name            string
	CreatedByUserID string
	CreatedAt       int64
}

// CreateServiceAccount inserts a new service account owned by userID.
func (d *Database) CreateServiceAccount(userID, name string) (*ServiceAccount, error) {
	id := uuid.NewString()
	now := nowMS()
	_, err := d.db.Exec(`INSERT INTO service_accounts (id, name, created_by_user_id, created_at) VALUES (?, ?, ?, ?)`,
		id, name, userID, now)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, apperr.Conflict(fmt.Sprintf("service account %q already exists", name))
		}
		return nil, apperr.InternalFrom(err)
	}
	return &ServiceAccount{ID: id, Name: name, CreatedByUserID: userID, CreatedAt: now}, nil
}

// ServiceAccountByID looks up a service account.
func (d *Database) ServiceAccountByID(id string) (*ServiceAccount, error) {
	var sa ServiceAccount
	err := d.db.QueryRow(`SELECT id, name, created_by_user_id, created_at FROM service_accounts WHERE id = ?`, id).
		Scan(&sa.ID, &sa.Name, &sa.CreatedByUserID, &sa.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	return &sa, nil
}

// ListServiceAccountsByOwner lists an owner's service accounts.
func (d *Database) ListServiceAccountsByOwner(userID string) ([]*ServiceAccount, error) {
	rows, err := d.db.Query(`SELECT id, name, created_by_user_id, created_at FROM service_accounts WHERE created_by_user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*ServiceAccount
	for rows.Next() {
		var sa ServiceAccount
		if err := rows.Scan(&sa.ID, &sa.Name, &sa.CreatedByUserID, &sa.CreatedAt); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		out = append(out, &sa)
	}
	return out, rows.Err()
}

// DeleteServiceAccount removes a service account and its API keys.
func (d *Database) DeleteServiceAccount(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return apperr.InternalFrom(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM api_key_permissions WHERE api_key_id IN (SELECT id FROM api_keys WHERE service_account_id = ?)`, id); err != nil {
		return apperr.InternalFrom(err)
	}
	if _, err := tx.Exec(`DELETE FROM api_keys WHERE service_account_id = ?`, id); err != nil {
		return apperr.InternalFrom(err)
	}
	res, err := tx.Exec(`DELETE FROM service_accounts WHERE id = ?`, id)
	if err != nil {
		return apperr.InternalFrom(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("service account")
	}
	return apperr.InternalFrom(tx.Commit())
}
