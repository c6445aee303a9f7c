package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Session is the server-side record backing a signed cookie's jti, the
// same shape the teacher's Redis-backed store used (SessionData) —
// Raphael keeps it in-process (Non-goals: no distributed operation).
type Session struct {
	SessionID string
	UserID    string
	Email     string
	Role      string
	CreatedAt time.Time
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
}

// SessionStore tracks live sessions so a cookie can be revoked before
// its JWT expiry (logout, admin disable, server restart wipes all).
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session), ttl: ttl}
}

// GenerateSessionID returns a 256-bit random, hex-encoded session id.
func GenerateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *SessionStore) CreateSession(userID, email, role, ip, userAgent string) (*Session, error) {
	id, err := GenerateSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sess := &Session{
		SessionID: id,
		UserID:    userID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		IPAddress: ip,
		UserAgent: userAgent,
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *SessionStore) GetSession(sessionID string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil, false
	}
	return sess, true
}

func (s *SessionStore) ValidateSession(sessionID string) bool {
	_, ok := s.GetSession(sessionID)
	return ok
}

func (s *SessionStore) DeleteSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// DeleteUserSessions revokes every session belonging to a user — used
// when an admin disables an account.
func (s *SessionStore) DeleteUserSessions(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) ClearAllSessions() {
	s.mu.Lock()
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
}

// RefreshSession extends a session's expiry from now.
func (s *SessionStore) RefreshSession(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	sess.ExpiresAt = time.Now().Add(s.ttl)
	return true
}
