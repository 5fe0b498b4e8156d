package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// validKeyPattern matches valid prompt keys (alphanumeric with dots, underscores).
var validKeyPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._]*$`)

// Store persists prompt overrides as a single JSON file. All reads go through
// an in-memory map loaded at construction.
type Store struct {
	mu        sync.RWMutex
	path      string
	overrides map[string]Override
	logger    *slog.Logger
}

// NewStore creates a prompt override store backed by the given file. A missing
// file is treated as an empty store.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:      path,
		overrides: make(map[string]Override),
		logger:    logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read override store: %w", err)
	}

	if err := json.Unmarshal(data, &s.overrides); err != nil {
		return nil, fmt.Errorf("failed to parse override store %s: %w", path, err)
	}
	return s, nil
}

// GetOverride returns the override for a key, or nil if none exists.
func (s *Store) GetOverride(key string) (*Override, error) {
	if !validKeyPattern.MatchString(key) {
		return nil, fmt.Errorf("invalid prompt key: %s", key)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[key]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// SetOverride creates or replaces the override for a key.
func (s *Store) SetOverride(key, text, note string) error {
	if !validKeyPattern.MatchString(key) {
		return fmt.Errorf("invalid prompt key: %s", key)
	}
	if text == "" {
		return fmt.Errorf("override text must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = Override{
		Key:       key,
		Text:      text,
		Note:      note,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.persist(); err != nil {
		return err
	}
	s.logger.Info("saved prompt override", "key", key)
	return nil
}

// DeleteOverride removes the override for a key. Deleting a nonexistent
// override is not an error.
func (s *Store) DeleteOverride(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overrides[key]; !ok {
		return nil
	}
	delete(s.overrides, key)
	return s.persist()
}

// ListOverrides returns all overrides.
func (s *Store) ListOverrides() []Override {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Override, 0, len(s.overrides))
	for _, o := range s.overrides {
		result = append(result, o)
	}
	return result
}

// persist writes the override map to disk. Must be called with lock held.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.overrides, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal overrides: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create override store dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write override store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace override store: %w", err)
	}
	return nil
}
