package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"havenpanel/paneld/internal/auth/hash"
	"havenpanel/paneld/internal/sessions"
)

// ErrInvalidCredentials is returned for every login failure. Callers must not
// be able to tell an unknown username from a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is one registry entry. The registry is read once at startup and never
// mutated while the process runs.
type User struct {
	Username   string `json:"username"`
	Credential string `json:"credential"`
	Role       string `json:"role"`
}

// Manager validates credentials against the user registry and owns the
// session lifecycle against an injected store.
type Manager struct {
	users  map[string]User
	store  sessions.Store
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

func NewManager(users []User, store sessions.Store, ttl time.Duration, logger zerolog.Logger) *Manager {
	byName := make(map[string]User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &Manager{
		users:  byName,
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// LoadRegistry reads the users file. A missing or unreadable file falls back
// to the built-in demo admin so a fresh install is reachable.
func LoadRegistry(path string, logger zerolog.Logger) []User {
	fallback := []User{{Username: "admin", Credential: hash.PlainPrefix + "admin123", Role: "admin"}}
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", path).Msg("users file unreadable, using default user")
		}
		return fallback
	}
	var users []User
	if err := json.Unmarshal(b, &users); err != nil || len(users) == 0 {
		logger.Warn().Err(err).Str("path", path).Msg("users file invalid, using default user")
		return fallback
	}
	return users
}

// Login verifies the credential and mints a session with an absolute expiry.
func (m *Manager) Login(username, password string) (sessions.Session, error) {
	u, ok := m.users[username]
	if !ok || !hash.VerifyCredential(u.Credential, password) {
		return sessions.Session{}, ErrInvalidCredentials
	}
	token, err := newToken()
	if err != nil {
		return sessions.Session{}, err
	}
	now := m.now()
	sess := sessions.Session{
		Token:     token,
		Username:  u.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.store.Put(sess)
	m.logger.Info().Str("user", u.Username).Msg("login")
	return sess, nil
}

// Logout drops the session. Unknown or already-expired tokens are fine.
func (m *Manager) Logout(token string) {
	m.store.Delete(token)
}

// Authenticate resolves a bearer token to its session. Expired sessions are
// removed as a side effect and fail authentication.
func (m *Manager) Authenticate(token string) (sessions.Session, bool) {
	if token == "" {
		return sessions.Session{}, false
	}
	sess, ok := m.store.Get(token)
	if !ok {
		return sessions.Session{}, false
	}
	if sess.Expired(m.now()) {
		m.store.Delete(token)
		return sessions.Session{}, false
	}
	return sess, true
}

// Role returns the registry role for an authenticated username.
func (m *Manager) Role(username string) string {
	return m.users[username].Role
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
