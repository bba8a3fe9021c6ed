// Package session owns the signed-in identity. A Manager is created once at
// startup, restored from the local store, started on login and ended on logout.
package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"estate_hub/models"
)

const (
	KeyToken = "session_token"
	KeyRole  = "user_role"
)

// Route is the first screen shown after startup.
type Route string

const (
	RouteLogin Route = "login"
	RouteHome  Route = "home"
	RouteAdmin Route = "admin"
)

var ErrEmptyToken = errors.New("session token is empty")

// Store is the persistent key-value store behind a Manager.
type Store interface {
	GetString(key string) (string, bool, error)
	SetStrings(values map[string]string) error
	Remove(keys ...string) error
}

// Validator rejects tokens that are expired or forged.
type Validator func(token string) error

type Session struct {
	Token string
	Role  models.Role
}

type Manager struct {
	store    Store
	validate Validator
	logger   *zap.Logger

	mu      sync.RWMutex
	current *Session
}

func NewManager(store Store, validate Validator, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, validate: validate, logger: logger}
}

// Start persists the token and role and makes them the current session.
func (m *Manager) Start(token string, role models.Role) error {
	if token == "" {
		return ErrEmptyToken
	}
	if role == "" {
		role = models.RoleGuest
	}

	if err := m.store.SetStrings(map[string]string{
		KeyToken: token,
		KeyRole:  string(role),
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.current = &Session{Token: token, Role: role}
	m.mu.Unlock()

	m.logger.Info("session started", zap.String("role", string(role)))
	return nil
}

// End clears the persisted and in-memory session. Ending twice is fine.
func (m *Manager) End() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Remove(KeyToken, KeyRole); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.logger.Info("session ended")
	return nil
}

// Restore loads the persisted session at startup. A token that fails
// validation is discarded.
func (m *Manager) Restore() (Session, bool, error) {
	token, ok, err := m.store.GetString(KeyToken)
	if err != nil {
		return Session{}, false, fmt.Errorf("read session token: %w", err)
	}
	if !ok || token == "" {
		return Session{}, false, nil
	}

	if m.validate != nil {
		if err := m.validate(token); err != nil {
			m.logger.Info("discarding stored session", zap.Error(err))
			if endErr := m.End(); endErr != nil {
				return Session{}, false, endErr
			}
			return Session{}, false, nil
		}
	}

	roleStr, _, err := m.store.GetString(KeyRole)
	if err != nil {
		return Session{}, false, fmt.Errorf("read session role: %w", err)
	}
	role, known := models.ParseRole(roleStr)
	if !known {
		role = models.RoleGuest
	}

	s := Session{Token: token, Role: role}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	return s, true, nil
}

func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// InitialRoute restores the session and picks the first screen.
func (m *Manager) InitialRoute() Route {
	s, ok, err := m.Restore()
	if err != nil {
		m.logger.Warn("session restore failed", zap.Error(err))
		return RouteLogin
	}
	if !ok {
		return RouteLogin
	}
	if s.Role == models.RoleAdmin {
		return RouteAdmin
	}
	return RouteHome
}
