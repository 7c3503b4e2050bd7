package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/example/retail-pos/internal/auth"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// Storage is a small key/value store that survives restarts.
type Storage interface {
	Read() (map[string]string, error)
	Write(map[string]string) error
}

// FileStorage keeps the values in a JSON file readable only by its owner.
type FileStorage struct {
	Path string
}

func (f FileStorage) Read() (map[string]string, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return values, nil
}

// Write replaces the file through a rename so a crash never leaves half a file.
func (f FileStorage) Write(values map[string]string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

// User is the signed-in user as the server describes it.
type User struct {
	ID            string       `json:"id"`
	Login         string       `json:"login"`
	Email         string       `json:"email,omitempty"`
	Name          string       `json:"name"`
	Role          auth.Role    `json:"role"`
	Active        bool         `json:"active"`
	AllowedRoutes []auth.Route `json:"allowed_routes,omitempty"`
	LastLoginAt   *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Session holds the token and user between runs. The two are always written and
// cleared together.
type Session struct {
	mu      sync.RWMutex
	storage Storage
	token   string
	user    *User
}

func NewSession(storage Storage) *Session {
	return &Session{storage: storage}
}

// Load restores a saved session. Unreadable user data discards the whole session.
func (s *Session) Load() error {
	values, err := s.storage.Read()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user = "", nil

	token, rawUser := values[keyToken], values[keyUser]
	if token == "" || rawUser == "" {
		return nil
	}
	var u User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		delete(values, keyToken)
		delete(values, keyUser)
		return s.storage.Write(values)
	}
	s.token, s.user = token, &u
	return nil
}

func (s *Session) Save(token string, u User) error {
	rawUser, err := json.Marshal(u)
	if err != nil {
		return err
	}
	values, err := s.storage.Read()
	if err != nil {
		values = map[string]string{}
	}
	values[keyToken] = token
	values[keyUser] = string(rawUser)
	if err := s.storage.Write(values); err != nil {
		return err
	}

	s.mu.Lock()
	s.token, s.user = token, &u
	s.mu.Unlock()
	return nil
}

func (s *Session) Clear() error {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.mu.Unlock()

	values, err := s.storage.Read()
	if err != nil {
		values = map[string]string{}
	}
	delete(values, keyToken)
	delete(values, keyUser)
	return s.storage.Write(values)
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or false when nobody is signed in.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Session) HasRole(roles ...auth.Role) bool {
	u, ok := s.User()
	if !ok {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Navigate returns the route the user actually lands on when asking for route.
func (s *Session) Navigate(policy *auth.Policy, route auth.Route) auth.Route {
	var current *auth.Session
	if u, ok := s.User(); ok && s.IsAuthenticated() {
		current = &auth.Session{UserID: u.ID, Role: u.Role}
	}
	return policy.Resolve(current, route)
}
