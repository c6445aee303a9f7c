package auth

import (
	"github.com/raphael-dev/raphael/internal/apperr"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

// SessionCookieName is the cookie name the HTTP surface sets and
// clears around a local-password login.
func SessionCookieName() string { return sessionCookieName }

// LoginWithPassword is the only login mechanism Raphael implements
// itself (§10.1): the real session provider is assumed external and
// opaque, but a bcrypt-backed local login still needs to exist to
// bootstrap the very first admin before that provider is wired up.
func (s *Service) LoginWithPassword(email, password, ip, userAgent string) (token string, profile *rowstore.UserProfile, err error) {
	if !s.cfg.PasswordLoginOn {
		return "", nil, apperr.Forbidden("password login is disabled")
	}
	p, err := s.db.UserProfileByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if p == nil || p.PasswordHash == nil || !VerifyPassword(password, *p.PasswordHash) {
		return "", nil, apperr.Unauthenticated("invalid email or password")
	}
	if p.Disabled {
		return "", nil, apperr.Forbidden("account is disabled")
	}

	sess, err := s.sess.CreateSession(p.UserID, p.Email, p.Role, ip, userAgent)
	if err != nil {
		return "", nil, apperr.InternalFrom(err)
	}
	token, err = s.jwt.GenerateToken(p.UserID, p.Email, p.Role, sess.SessionID)
	if err != nil {
		return "", nil, apperr.InternalFrom(err)
	}
	if err := s.db.TouchLastLogin(p.UserID); err != nil {
		return "", nil, err
	}
	return token, p, nil
}

// Logout revokes the session backing a cookie, if any.
func (s *Service) Logout(sessionID string) {
	if sessionID != "" {
		s.sess.DeleteSession(sessionID)
	}
}

// RevokeUserSessions kills every live session for a user — used when an
// admin disables an account (spec.md §4.B).
func (s *Service) RevokeUserSessions(userID string) {
	s.sess.DeleteUserSessions(userID)
}

// RefreshSession extends the backing session's expiry, keyed off the
// jti already validated by Resolve.
func (s *Service) RefreshSession(sessionID string) bool {
	return s.sess.RefreshSession(sessionID)
}
