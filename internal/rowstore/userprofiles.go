package rowstore

import (
	"database/sql"
	"strings"

	"github.com/raphael-dev/raphael/internal/apperr"
)

// UserProfile mirrors spec.md §3's UserProfile entity.
type UserProfile struct {
	UserID       string
	Email        string
	Role         string
	Disabled     bool
	PasswordHash *string
	CreatedAt    int64
	UpdatedAt    int64
	LastLoginAt  *int64
}

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

const userProfileColumns = `user_id, email, role, disabled, password_hash, created_at, updated_at, last_login_at`

func scanUserProfile(row interface{ Scan(...any) error }) (*UserProfile, error) {
	var u UserProfile
	var disabled int
	if err := row.Scan(&u.UserID, &u.Email, &u.Role, &disabled, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt); err != nil {
		return nil, err
	}
	u.Disabled = disabled != 0
	return &u, nil
}

// UserProfileByID looks up a profile by user id.
func (d *Database) UserProfileByID(userID string) (*UserProfile, error) {
	row := d.db.QueryRow(`SELECT `+userProfileColumns+` FROM user_profiles WHERE user_id = ?`, userID)
	u, err := scanUserProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	return u, nil
}

// UserProfileByEmail looks up a profile by lower-cased email.
func (d *Database) UserProfileByEmail(email string) (*UserProfile, error) {
	row := d.db.QueryRow(`SELECT `+userProfileColumns+` FROM user_profiles WHERE email = ?`, strings.ToLower(email))
	u, err := scanUserProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	return u, nil
}

// ListUserProfiles returns every user profile.
func (d *Database) ListUserProfiles() ([]*UserProfile, error) {
	rows, err := d.db.Query(`SELECT ` + userProfileColumns + ` FROM user_profiles ORDER BY created_at ASC`)
	if err != nil {
		return nil, apperr.InternalFrom(err)
	}
	defer rows.Close()

	var out []*UserProfile
	for rows.Next() {
		u, err := scanUserProfile(rows)
		if err != nil {
			return nil, apperr.InternalFrom(err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountUserProfiles reports how many profiles exist — used to decide
// whether the next created profile becomes the first admin.
func (d *Database) CountUserProfiles() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM user_profiles`).Scan(&n); err != nil {
		return 0, apperr.InternalFrom(err)
	}
	return n, nil
}

// UpsertUserProfile creates or updates a profile, lower-casing email on
// write (spec.md §3). The first profile ever created becomes admin.
func (d *Database) UpsertUserProfile(userID, email, role string) (*UserProfile, error) {
	email = strings.ToLower(email)
	now := nowMS()

	existing, err := d.UserProfileByID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		_, err := d.db.Exec(`UPDATE user_profiles SET email = ?, role = ?, updated_at = ? WHERE user_id = ?`,
			email, role, now, userID)
		if err != nil {
			return nil, apperr.InternalFrom(err)
		}
		existing.Email, existing.Role, existing.UpdatedAt = email, role, now
		return existing, nil
	}

	count, err := d.CountUserProfiles()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		role = RoleAdmin
	}

	_, err = d.db.Exec(`INSERT INTO user_profiles (user_id, email, role, disabled, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)`,
		userID, email, role, now, now)
	if err != nil {
		return nil, mapInsertErr(err)
	}
	return &UserProfile{UserID: userID, Email: email, Role: role, CreatedAt: now, UpdatedAt: now}, nil
}

// SetUserRole updates a profile's role, refusing to touch the protected
// admin email (spec.md §4.B).
func (d *Database) SetUserRole(userID, role, protectedAdminEmail string) error {
	u, err := d.UserProfileByID(userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.NotFound("user")
	}
	if protectedAdminEmail != "" && strings.EqualFold(u.Email, protectedAdminEmail) {
		return apperr.Forbidden("the configured admin email's role cannot be changed")
	}
	_, err = d.db.Exec(`UPDATE user_profiles SET role = ?, updated_at = ? WHERE user_id = ?`, role, nowMS(), userID)
	return apperr.InternalFrom(err)
}

// SetUserDisabled updates a profile's disabled flag, refusing to touch
// the protected admin email (spec.md §4.B).
func (d *Database) SetUserDisabled(userID string, disabled bool, protectedAdminEmail string) error {
	u, err := d.UserProfileByID(userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.NotFound("user")
	}
	if protectedAdminEmail != "" && strings.EqualFold(u.Email, protectedAdminEmail) {
		return apperr.Forbidden("the configured admin email cannot be disabled")
	}
	v := 0
	if disabled {
		v = 1
	}
	_, err = d.db.Exec(`UPDATE user_profiles SET disabled = ?, updated_at = ? WHERE user_id = ?`, v, nowMS(), userID)
	return apperr.InternalFrom(err)
}

// TouchLastLogin stamps last_login_at to now.
func (d *Database) TouchLastLogin(userID string) error {
	_, err := d.db.Exec(`UPDATE user_profiles SET last_login_at = ? WHERE user_id = ?`, nowMS(), userID)
	return apperr.InternalFrom(err)
}

// SetPasswordHash stores a bcrypt hash for the local password fallback
// login path (used to bootstrap the very first admin before an
// external session provider is wired up).
func (d *Database) SetPasswordHash(userID, hash string) error {
	_, err := d.db.Exec(`UPDATE user_profiles SET password_hash = ?, updated_at = ? WHERE user_id = ?`, hash, nowMS(), userID)
	return apperr.InternalFrom(err)
}
