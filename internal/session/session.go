package session

import (
	"sync"
	"time"
)

// Authenticated identity behind a console session.
type User struct {
	ID       int64
	Username string
	Role     string // ADMIN, MANAGER, DRIVER
	DriverID int64  // 0 unless Role is DRIVER
}

// Session carries the auth token and identity for every API call.
//
// It is created at sign-in and invalidated at sign-out or on an
// authorization failure from any call; it replaces ambient global state so
// each view can be handed an explicit lifecycle.
type Session struct {
	mu        sync.RWMutex
	user      User
	token     string
	valid     bool
	createdAt time.Time
}

func New(user User, token string) *Session {
	return &Session{
		user:      user,
		token:     token,
		valid:     token != "",
		createdAt: time.Now(),
	}
}

func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid
}

func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// Authorization returns the header value for authenticated requests, empty
// once the session is invalidated.
func (s *Session) Authorization() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid {
		return ""
	}
	return "Bearer " + s.token
}

// Invalidate marks the session dead. Idempotent; called on sign-out and by
// the API adapter when the server answers 401.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = false
	s.token = ""
}
