// Package session holds the authenticated user session and its on-disk store.
// The workflow packages only ever read a Session value passed to them; all
// ambient storage access lives here.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// User identifies the logged-in account.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the client-side view of an authentication state.
// A zero Session is a guest.
type Session struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store persists the session as JSON on disk.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (st *Store) Path() string {
	return st.path
}

// Load reads the persisted session. A missing file yields a guest
// session and no error.
func (st *Store) Load() (Session, error) {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("parse session file: %w", err)
	}
	return s, nil
}

// Save writes the session to disk, creating the parent directory if needed.
// The file holds a bearer token, so it is not group or world readable.
func (st *Store) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(st.path), 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(st.path, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Clearing an absent session is not
// an error.
func (st *Store) Clear() error {
	err := os.Remove(st.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
