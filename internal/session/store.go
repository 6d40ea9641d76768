// Package session holds the process-wide authenticated session: the opaque
// backend token and the user record. It is written once per successful
// negotiation and read by every protected surface.
package session

import (
	"errors"
	"sync"

	"consulting-marketplace/client/internal/api"
)

// ErrRoleNotAllowed is returned when a session is set or restored for a role
// this client does not serve (e.g. admin).
var ErrRoleNotAllowed = errors.New("session: role not allowed in this client")

// Session is an authenticated session. Token is opaque to this client.
type Session struct {
	Token string   `json:"token"`
	User  api.User `json:"user"`
}

// Store is the injectable session holder shared across views. Zero value is
// not usable; use NewStore.
type Store struct {
	mu  sync.RWMutex
	cur *Session
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current session wholesale. Roles outside
// {client, consultant} are rejected and nothing is stored.
func (s *Store) Set(token string, user api.User) error {
	if !user.Role.Allowed() {
		return ErrRoleNotAllowed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = &Session{Token: token, User: user}
	return nil
}

// Get returns a snapshot of the current session and whether one exists.
func (s *Store) Get() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return Session{}, false
	}
	return *s.cur, true
}

// Clear destroys the current session. Safe to call when empty.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
}
