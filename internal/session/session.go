// Package session holds the bearer token of the signed-in user.
//
// A Session is constructed once at the application root and handed to every
// component that talks to the API. All writes go through Set and Clear so
// observers can hide authenticated affordances as soon as the token changes.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKey is the storage key the token is persisted under.
const TokenKey = "access_token"

// ErrNoToken is returned by Identity when no token is held.
var ErrNoToken = errors.New("not signed in")

// Slot persists a single token value.
type Slot interface {
	Load() (string, bool, error)
	Save(value string) error
	Clear() error
}

// Session is the process-wide holder of the bearer token.
type Session struct {
	mu        sync.RWMutex
	slot      Slot
	token     string
	nextID    int
	observers map[int]func(authenticated bool)
}

// New loads the current token from slot.
func New(slot Slot) (*Session, error) {
	token, ok, err := slot.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		token = ""
	}
	return &Session{slot: slot, token: token, observers: map[int]func(bool){}}, nil
}

// NewMemory returns a session that is not persisted anywhere.
func NewMemory() *Session {
	s, _ := New(&MemorySlot{})
	return s
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Set stores a new token. An empty token signs the session out.
func (s *Session) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear()
	}
	s.mu.Lock()
	if err := s.slot.Save(token); err != nil {
		s.mu.Unlock()
		return err
	}
	changed := s.token == ""
	s.token = token
	observers := s.snapshotObservers()
	s.mu.Unlock()

	if changed {
		notify(observers, true)
	}
	return nil
}

// Clear removes the token. Clearing an empty session is a no-op apart from
// the storage write.
func (s *Session) Clear() error {
	s.mu.Lock()
	err := s.slot.Clear()
	changed := s.token != ""
	s.token = ""
	observers := s.snapshotObservers()
	s.mu.Unlock()

	if changed {
		notify(observers, false)
	}
	return err
}

// Subscribe registers fn to be called whenever the session flips between
// signed in and signed out. The returned func removes the observer.
func (s *Session) Subscribe(fn func(authenticated bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Session) snapshotObservers() []func(bool) {
	out := make([]func(bool), 0, len(s.observers))
	for _, fn := range s.observers {
		out = append(out, fn)
	}
	return out
}

func notify(observers []func(bool), authenticated bool) {
	for _, fn := range observers {
		fn(authenticated)
	}
}

// Identity describes who a token was issued to, as far as the token itself says.
type Identity struct {
	Subject   string
	ExpiresAt time.Time
}

// Identity peeks at the token's JWT claims. The signature is not verified;
// the result is for display only. Opaque tokens yield an empty Identity.
func (s *Session) Identity() (Identity, error) {
	token := s.Token()
	if token == "" {
		return Identity{}, ErrNoToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, nil
	}
	var id Identity
	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// MemorySlot keeps the token in memory.
type MemorySlot struct {
	mu    sync.Mutex
	value string
	set   bool
}

func (m *MemorySlot) Load() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.set, nil
}

func (m *MemorySlot) Save(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = value, true
	return nil
}

func (m *MemorySlot) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = "", false
	return nil
}
