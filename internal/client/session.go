package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/newsroom/internal/model"
)

// SessionData is what survives a restart: the token and the profile that
// came with it.
type SessionData struct {
	Token string      `json:"token"`
	User  *model.User `json:"user,omitempty"`
}

// SessionStore persists SessionData between runs.
// Load returns (nil, nil) when nothing is stored.
type SessionStore interface {
	Load() (*SessionData, error)
	Save(data SessionData) error
	Clear() error
}

// Session is the client's login state. It replaces a process-wide global:
// callers create one with OpenSession, pass it down explicitly (or through
// the context with WithSession), and End it on logout.
//
// EXPIRY:
// The token's "exp" claim is read without verifying the signature; the
// client has no key and doesn't need one. An expired token is dropped
// proactively, at open time and on every Token() call. The server still
// rejects expired tokens on its own.
type Session struct {
	mu    sync.RWMutex
	store SessionStore
	data  *SessionData
	now   func() time.Time
}

// OpenSession hydrates a session from store. A stored token that has
// already expired is cleared and the session starts logged out.
func OpenSession(store SessionStore) (*Session, error) {
	return openSession(store, time.Now)
}

func openSession(store SessionStore, now func() time.Time) (*Session, error) {
	s := &Session{store: store, now: now}

	data, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("client: loading session: %w", err)
	}
	if data == nil || data.Token == "" {
		return s, nil
	}

	s.data = data
	if s.expiredLocked() {
		s.data = nil
		if err := store.Clear(); err != nil {
			return nil, fmt.Errorf("client: clearing expired session: %w", err)
		}
	}
	return s, nil
}

// Begin starts (or replaces) the session and persists it.
func (s *Session) Begin(token string, user *model.User) error {
	if token == "" {
		return errors.New("client: empty session token")
	}
	data := SessionData{Token: token, User: user}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(data); err != nil {
		return err
	}
	s.data = &data
	return nil
}

// End forgets the session locally and in the store.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return s.store.Clear()
}

// Token returns the bearer token, or "" when logged out or expired.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return ""
	}
	if s.expiredLocked() {
		s.data = nil
		_ = s.store.Clear()
		return ""
	}
	return s.data.Token
}

// User returns the stored profile, or nil when logged out.
func (s *Session) User() *model.User {
	if s.Token() == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil
	}
	return s.data.User
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// ExpiresAt reports the token's embedded expiry.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return time.Time{}, false
	}
	return TokenExpiry(s.data.Token)
}

// expiredLocked reports whether the held token is past its expiry. A token
// without a readable expiry counts as expired. Callers hold s.mu.
func (s *Session) expiredLocked() bool {
	exp, ok := TokenExpiry(s.data.Token)
	return !ok || !s.now().Before(exp)
}

// TokenExpiry reads the "exp" claim of a JWT without verifying it.
func TokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// =========================================================================
// CONTEXT PASSING
// =========================================================================

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom retrieves the session stored by WithSession.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// =========================================================================
// STORES
// =========================================================================

// FileStore keeps the session as a JSON file readable only by the owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultSessionPath is <user config dir>/newsctl/session.json.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "newsctl", "session.json"), nil
}

func (f *FileStore) Load() (*SessionData, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		// A corrupt file is treated as no session, not as a fatal error.
		return nil, nil
	}
	return &data, nil
}

func (f *FileStore) Save(data SessionData) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0o600)
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore keeps the session in memory only.
type MemoryStore struct {
	mu   sync.Mutex
	data *SessionData
}

func (m *MemoryStore) Load() (*SessionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	copied := *m.data
	return &copied, nil
}

func (m *MemoryStore) Save(data SessionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = &data
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
