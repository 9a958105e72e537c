package sessions

import (
	"sync"
	"time"
)

// Session associates a bearer token with an authenticated identity. The token
// is the map key and is never reused after removal.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session's absolute expiry has passed.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store is the session-store abstraction the authenticator is built against.
// Entries are independent key-value pairs; implementations must be safe for
// concurrent use but need no cross-entry invariants.
type Store interface {
	Put(s Session)
	Get(token string) (Session, bool)
	Delete(token string)
	Len() int
}

// MemoryStore keeps sessions in process memory. Nothing survives a restart,
// which is the intended lifetime for panel logins.
type MemoryStore struct {
	mu  sync.RWMutex
	mem map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mem: map[string]Session{}}
}

func (s *MemoryStore) Put(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[sess.Token] = sess
}

func (s *MemoryStore) Get(token string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.mem[token]
	return v, ok
}

func (s *MemoryStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mem, token)
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mem)
}

// Sweep removes every session expired as of now and returns how many were
// dropped. Lazy expiry on authenticate is authoritative; the sweep only
// bounds store growth from abandoned logins.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, sess := range s.mem {
		if sess.Expired(now) {
			delete(s.mem, token)
			n++
		}
	}
	return n
}
