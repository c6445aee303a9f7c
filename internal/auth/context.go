package auth

import (
	"encoding/json"
	"strings"

	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// Kind is one of the four shapes a request's AuthContext can take
// (spec.md §4.B).
type Kind string

const (
	KindDisabled  Kind = "disabled"
	KindSession   Kind = "session"
	KindAPIKey    Kind = "api_key"
	KindAnonymous Kind = "anonymous"
)

// AuthContext is the outcome of resolving one request's credentials.
type AuthContext struct {
	Kind Kind

	// Populated for KindSession.
	UserID   string
	Email    string
	Role     string
	Disabled bool
	SessionID string

	// Populated for KindAPIKey.
	ApiKeyID         string
	ServiceAccountID string
}

func (a *AuthContext) IsAdmin() bool {
	return a.Kind == KindSession && a.Role == rowstore.RoleAdmin
}

// Config holds the auth knobs internal/config.Config exposes.
type Config struct {
	Enabled         bool
	PasswordLoginOn bool
	AdminEmail      string
}

// Service wires JWT validation, the in-process session store, and
// rowstore lookups into AuthContext resolution and policy checks.
type Service struct {
	db      *rowstore.Database
	jwt     *JWTManager
	sess    *SessionStore
	cfg     Config
}

func NewService(db *rowstore.Database, jwt *JWTManager, sess *SessionStore, cfg Config) *Service {
	return &Service{db: db, jwt: jwt, sess: sess, cfg: cfg}
}

const (
	settingAllowedEmails    = "oauth.allowed_emails"
	settingAllowedDomains   = "oauth.allowed_domains"
	settingDefaultCanIngest = "policy.default_can_ingest"
	settingDefaultCanQuery  = "policy.default_can_query"
)

// IsAllowedEmail enforces the OAuth allowlist (spec.md §4.B): allowed
// only when the email matches an explicit entry or domain, or both
// lists are empty. Only consulted when auth is on and password login
// is off — local-password accounts bypass the allowlist entirely.
func (s *Service) IsAllowedEmail(email string) (bool, error) {
	if s.cfg.Enabled && !s.cfg.PasswordLoginOn {
		emails, err := s.stringListSetting(settingAllowedEmails)
		if err != nil {
			return false, err
		}
		domains, err := s.stringListSetting(settingAllowedDomains)
		if err != nil {
			return false, err
		}
		if len(emails) == 0 && len(domains) == 0 {
			return true, nil
		}
		email = strings.ToLower(email)
		for _, e := range emails {
			if strings.ToLower(e) == email {
				return true, nil
			}
		}
		at := strings.LastIndex(email, "@")
		if at >= 0 {
			domain := email[at+1:]
			for _, d := range domains {
				if strings.EqualFold(d, domain) {
					return true, nil
				}
			}
		}
		return false, nil
	}
	return true, nil
}

// AuthPolicy is the admin-editable allowlist/default-permission policy
// backing IsAllowedEmail and ApplyDefaultPermissions.
type AuthPolicy struct {
	AllowedEmails    []string `json:"allowed_emails"`
	AllowedDomains   []string `json:"allowed_domains"`
	DefaultCanIngest bool     `json:"default_can_ingest"`
	DefaultCanQuery  bool     `json:"default_can_query"`
}

// GetAuthPolicy reads the current policy settings for the admin UI.
func (s *Service) GetAuthPolicy() (*AuthPolicy, error) {
	emails, err := s.stringListSetting(settingAllowedEmails)
	if err != nil {
		return nil, err
	}
	domains, err := s.stringListSetting(settingAllowedDomains)
	if err != nil {
		return nil, err
	}
	ingestSetting, err := s.db.AppSettingGet(settingDefaultCanIngest)
	if err != nil {
		return nil, err
	}
	querySetting, err := s.db.AppSettingGet(settingDefaultCanQuery)
	if err != nil {
		return nil, err
	}
	return &AuthPolicy{
		AllowedEmails:    emails,
		AllowedDomains:   domains,
		DefaultCanIngest: ingestSetting != nil && ingestSetting.Value == "true",
		DefaultCanQuery:  querySetting != nil && querySetting.Value == "true",
	}, nil
}

// SetAuthPolicy overwrites the policy settings.
func (s *Service) SetAuthPolicy(p AuthPolicy) error {
	emails, err := json.Marshal(p.AllowedEmails)
	if err != nil {
		return apperr.Internal("failed to encode allowed emails")
	}
	domains, err := json.Marshal(p.AllowedDomains)
	if err != nil {
		return apperr.Internal("failed to encode allowed domains")
	}
	if err := s.db.AppSettingSet(settingAllowedEmails, string(emails)); err != nil {
		return err
	}
	if err := s.db.AppSettingSet(settingAllowedDomains, string(domains)); err != nil {
		return err
	}
	if err := s.db.AppSettingSet(settingDefaultCanIngest, boolSettingValue(p.DefaultCanIngest)); err != nil {
		return err
	}
	return s.db.AppSettingSet(settingDefaultCanQuery, boolSettingValue(p.DefaultCanQuery))
}

// SeedAuthPolicy applies the optional YAML seed file's defaults the
// first time the process boots against a fresh database — it never
// overwrites settings an admin has already changed via SetAuthPolicy.
func (s *Service) SeedAuthPolicy(emails, domains []string, defaultCanIngest, defaultCanQuery bool) error {
	emailsJSON, err := json.Marshal(emails)
	if err != nil {
		return apperr.Internal("failed to encode allowed emails")
	}
	domainsJSON, err := json.Marshal(domains)
	if err != nil {
		return apperr.Internal("failed to encode allowed domains")
	}
	if err := s.db.AppSettingSetIfAbsent(settingAllowedEmails, string(emailsJSON)); err != nil {
		return err
	}
	if err := s.db.AppSettingSetIfAbsent(settingAllowedDomains, string(domainsJSON)); err != nil {
		return err
	}
	if err := s.db.AppSettingSetIfAbsent(settingDefaultCanIngest, boolSettingValue(defaultCanIngest)); err != nil {
		return err
	}
	return s.db.AppSettingSetIfAbsent(settingDefaultCanQuery, boolSettingValue(defaultCanQuery))
}

func boolSettingValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (s *Service) stringListSetting(key string) ([]string, error) {
	setting, err := s.db.AppSettingGet(key)
	if err != nil {
		return nil, err
	}
	if setting == nil || setting.Value == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(setting.Value), &list); err != nil {
		return nil, apperr.Internal("malformed " + key + " setting")
	}
	return list, nil
}

// ApplyDefaultPermissions grants a brand-new member the configured
// default Drop permissions on their very first login, but only if they
// have no UserDropPermission rows yet (spec.md §4.B).
func (s *Service) ApplyDefaultPermissions(userID string) error {
	existing, err := s.db.ListUserDropPermissions(userID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	ingestSetting, err := s.db.AppSettingGet(settingDefaultCanIngest)
	if err != nil {
		return err
	}
	querySetting, err := s.db.AppSettingGet(settingDefaultCanQuery)
	if err != nil {
		return err
	}
	canIngest := ingestSetting != nil && ingestSetting.Value == "true"
	canQuery := querySetting != nil && querySetting.Value == "true"
	if !canIngest && !canQuery {
		return nil
	}
	drops, err := s.db.ListDrops()
	if err != nil {
		return err
	}
	for _, d := range drops {
		if err := s.db.SetUserDropPermission(userID, d.ID, canIngest, canQuery); err != nil {
			return err
		}
	}
	return nil
}

// ObserveSession upserts a profile for an authenticated email and
// promotes it to admin when the email matches the configured admin
// email (spec.md §4.B). Called once per new session.
func (s *Service) ObserveSession(userID, email string) (*rowstore.UserProfile, error) {
	role := rowstore.RoleMember
	if s.cfg.AdminEmail != "" && strings.EqualFold(email, s.cfg.AdminEmail) {
		role = rowstore.RoleAdmin
	}
	profile, err := s.db.UpsertUserProfile(userID, email, role)
	if err != nil {
		return nil, err
	}
	if s.cfg.AdminEmail != "" && strings.EqualFold(email, s.cfg.AdminEmail) && profile.Role != rowstore.RoleAdmin {
		if err := s.db.SetUserRole(userID, rowstore.RoleAdmin, ""); err != nil {
			return nil, err
		}
		profile.Role = rowstore.RoleAdmin
	}
	return profile, nil
}
