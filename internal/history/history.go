// Package history persists chat sessions as JSON files so they can be
// reloaded later.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nchauhan/lmdesk/internal/chat"
)

// SavedSession is the on-disk shape of a chat session.
type SavedSession struct {
	SessionID string         `json:"session_id"`
	Timestamp string         `json:"timestamp"`
	Messages  []chat.Message `json:"messages"`
}

// Entry describes one saved session file.
type Entry struct {
	FileName  string `json:"file_name"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
	Messages  int    `json:"messages"`
}

// Store reads and writes saved sessions under a directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the store, making the directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save writes the conversation to a timestamped file and returns the file
// name.
func (s *Store) Save(conv *chat.Conversation) (string, error) {
	now := time.Now()
	saved := SavedSession{
		SessionID: conv.ID(),
		Timestamp: now.Format("2006-01-02 15:04:05"),
		Messages:  conv.Messages(),
	}

	name := fmt.Sprintf("chat_%s.json", now.Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("renaming session file: %w", err)
	}

	s.logger.Info("saved chat session", "file", name, "messages", len(saved.Messages))
	return name, nil
}

// Load reads a saved session by file name.
func (s *Store) Load(fileName string) (*SavedSession, error) {
	if err := validFileName(fileName); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var saved SavedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", fileName, err)
	}
	return &saved, nil
}

// Delete removes a saved session file.
func (s *Store) Delete(fileName string) error {
	if err := validFileName(fileName); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, fileName)); err != nil {
		return fmt.Errorf("deleting session file: %w", err)
	}
	return nil
}

// List returns the saved sessions, newest first. Unreadable files are
// logged and skipped.
func (s *Store) List() ([]Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading history dir: %w", err)
	}

	var entries []Entry
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, "chat_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		saved, err := s.Load(name)
		if err != nil {
			s.logger.Warn("skipping unreadable session file", "file", name, "error", err)
			continue
		}
		entries = append(entries, Entry{
			FileName:  name,
			SessionID: saved.SessionID,
			Timestamp: saved.Timestamp,
			Messages:  len(saved.Messages),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FileName > entries[j].FileName
	})
	return entries, nil
}

func validFileName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid session file name %q", name)
	}
	return nil
}
