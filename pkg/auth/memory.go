package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/bookwise/bookguard/pkg/policy"
)

type memoryUser struct {
	tokenHash string
	role      policy.Role
}

// MemoryProvider is an in-memory Provider used by tests and the demo
// server. Tokens are stored hashed; role assignment is one role per user.
type MemoryProvider struct {
	mu       sync.RWMutex
	users    map[string]memoryUser
	sessions map[string]Session
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		users:    make(map[string]memoryUser),
		sessions: make(map[string]Session),
	}
}

// CreateUser registers a user. Registering an existing username fails.
func (m *MemoryProvider) CreateUser(username, token string, role policy.Role) error {
	if username == "" || token == "" {
		return fmt.Errorf("auth: username and token are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[username]; exists {
		return fmt.Errorf("auth: user %q already exists", username)
	}
	m.users[username] = memoryUser{tokenHash: hashToken(token), role: role}
	return nil
}

// DeleteUser removes a user and any sessions they hold.
func (m *MemoryProvider) DeleteUser(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[username]; !exists {
		return fmt.Errorf("auth: user %q not found", username)
	}
	delete(m.users, username)
	for id, session := range m.sessions {
		if session.Username == username {
			delete(m.sessions, id)
		}
	}
	return nil
}

// Authenticate implements Provider.Authenticate.
func (m *MemoryProvider) Authenticate(username, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[username]
	if !ok {
		return false, nil
	}
	match := subtle.ConstantTimeCompare([]byte(user.tokenHash), []byte(hashToken(token))) == 1
	return match, nil
}

// RoleOf implements Provider.RoleOf.
func (m *MemoryProvider) RoleOf(username string) (policy.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[username]
	if !ok {
		return "", fmt.Errorf("auth: user %q not found", username)
	}
	return user.role, nil
}

// StoreSession implements Provider.StoreSession.
func (m *MemoryProvider) StoreSession(session Session) error {
	if session.ID == "" {
		return fmt.Errorf("auth: session ID is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

// LookupSession implements Provider.LookupSession. Expired sessions are
// dropped on lookup.
func (m *MemoryProvider) LookupSession(sessionID string) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, false, nil
	}
	if time.Now().After(session.ExpiresAt) {
		delete(m.sessions, sessionID)
		return Session{}, false, nil
	}
	return session, true, nil
}

// TerminateSession implements Provider.TerminateSession.
func (m *MemoryProvider) TerminateSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return fmt.Errorf("auth: session not found")
	}
	delete(m.sessions, sessionID)
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
