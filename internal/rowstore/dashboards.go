package rowstore

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/raphael-dev/raphael/internal/apperr"
)

// Dashboard mirrors spec.md §3. The renderer lives in the UI; the
// server only stores and returns opaque spec JSON per Drop.
type Dashboard struct {
	ID        string
	DropID    string
	Name      string
	SpecJSON  string
	CreatedAt int64
	UpdatedAt int64
}

// CreateDashboard inserts a new dashboard for a Drop.
func (d *Database) CreateDashboard(dropID, name, specJSON string) (*Dashboard, error) {
	id := uuid.NewString()
	now := nowMS()
	_, err := d.db.Exec(`INSERT INTO dashboards (id, drop_id, name, spec_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, dropID, name, specJSON, now, now)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	return &Dashboard{ID: id, DropID: dropID, Name: name, SpecJSON: specJSON, CreatedAt: now, UpdatedAt: now}, nil
}

// ListDashboards returns every dashboard for a Drop.
func (d *Database) ListDashboards(dropID string) ([]*Dashboard, error) {
	rows, err := d.db.Query(`SELECT id, drop_id, name, spec_json, created_at, updated_at FROM dashboards WHERE drop_id = ? ORDER BY created_at ASC`, dropID)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*Dashboard
	for rows.Next() {
		var dash Dashboard
		if err := rows.Scan(&dash.ID, &dash.DropID, &dash.Name, &dash.SpecJSON, &dash.CreatedAt, &dash.UpdatedAt); err != nil {
			return nil, apperr.InternalFrom(err)
		}
		out = append(out, &dash)
	}
	return out, rows.Err()
}

// DashboardByID looks up one dashboard.
func (d *Database) DashboardByID(id string) (*Dashboard, error) {
	var dash Dashboard
	err := d.db.QueryRow(`SELECT id, drop_id, name, spec_json, created_at, updated_at FROM dashboards WHERE id = ?`, id).
		Scan(&dash.ID, &dash.DropID, &dash.Name, &dash.SpecJSON, &dash.CreatedAt, &dash.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	return &dash, nil
}

// DeleteDashboard removes one dashboard.
func (d *Database) DeleteDashboard(id string) error {
	res, err := d.db.Exec(`DELETE FROM dashboards WHERE id = ?`, id)
	if err != nil {
		return apperr.InternalFrom(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("dashboard")
	}
	return nil
}
