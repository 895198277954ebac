// Package store implements bioscope's durable session identity store.
// It is the Go counterpart of the browser client's local storage: a small
// JSON file keyed by historical_id (current conversation), user (profile)
// and token (opaque credential). Reads never fail; a missing or malformed
// value is reported as absence.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"bioscope/internal/logger"
	"bioscope/pkg/biotypes"
)

const (
	keyHistoricalID = "historical_id"
	keyUser         = "user"
	keyToken        = "token"

	storeFileName = "local_store.json"
)

// Store is a file-backed key-value store for session identity. All methods
// are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// New opens the store rooted at dataDir, creating the directory if needed.
// An existing store file is loaded; a corrupt file is treated as empty, the
// same way a malformed local-storage entry is treated as absent.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	s := &Store{
		path:   filepath.Join(dataDir, storeFileName),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read store file %s: %w", s.path, err)
		}
		return s, nil
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		logger.Warn("Store file is malformed, starting empty", "path", s.path, "error", err)
		s.values = make(map[string]string)
	}

	return s, nil
}

// GetHistoricalID returns the persisted current conversation id, if any.
func (s *Store) GetHistoricalID() (string, bool) {
	return s.get(keyHistoricalID)
}

// SetHistoricalID persists the current conversation id. Idempotent.
func (s *Store) SetHistoricalID(id string) error {
	return s.set(keyHistoricalID, id)
}

// ClearHistoricalID removes the persisted conversation id. Safe to call when absent.
func (s *Store) ClearHistoricalID() error {
	return s.remove(keyHistoricalID)
}

// GetUserID returns the authenticated user's id from the stored profile.
// A missing or malformed profile yields absence, never an error.
func (s *Store) GetUserID() (string, bool) {
	profile, ok := s.GetUserProfile()
	if !ok {
		return "", false
	}
	id := profile.ResolveID()
	return id, id != ""
}

// GetUserProfile returns the stored user profile, if present and parseable.
func (s *Store) GetUserProfile() (*biotypes.UserProfile, bool) {
	raw, ok := s.get(keyUser)
	if !ok {
		return nil, false
	}

	var profile biotypes.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		logger.Debug("Stored user profile is malformed", "error", err)
		return nil, false
	}
	return &profile, true
}

// SetUserProfile persists the user profile, written by the login flow.
func (s *Store) SetUserProfile(profile *biotypes.UserProfile) error {
	if profile == nil {
		return fmt.Errorf("user profile cannot be nil")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode user profile: %w", err)
	}
	return s.set(keyUser, string(data))
}

// GetToken returns the stored opaque credential, if any. The conversation
// core only ever reads it.
func (s *Store) GetToken() (string, bool) {
	return s.get(keyToken)
}

// SetToken persists the opaque credential, written by the login flow.
func (s *Store) SetToken(token string) error {
	return s.set(keyToken, token)
}

// ClearAuth removes the stored user profile and token, leaving the
// conversation id untouched.
func (s *Store) ClearAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, keyUser)
	delete(s.values, keyToken)
	return s.persistLocked()
}

func (s *Store) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, exists := s.values[key]
	return value, exists && value != ""
}

func (s *Store) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.persistLocked()
}

func (s *Store) remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.values[key]; !exists {
		return nil
	}
	delete(s.values, key)
	return s.persistLocked()
}

// persistLocked writes the store file. Must hold s.mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write store file %s: %w", s.path, err)
	}
	return nil
}
