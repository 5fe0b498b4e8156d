package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the lmdesk home directory.
	DefaultDirName = ".lmdesk"

	// DataDirName is the subdirectory for uploaded datasets and images.
	DataDirName = "data"

	// ChatHistoryDirName is the subdirectory for saved chat sessions.
	ChatHistoryDirName = "chat_history"

	// CallLogDirName is the subdirectory for LLM call logs.
	CallLogDirName = "calls"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// PromptOverridesFileName stores user prompt overrides.
	PromptOverridesFileName = "prompt_overrides.json"

	// OllamaDirName holds the Ollama container's model cache.
	OllamaDirName = "ollama"
)

// Dir represents the lmdesk home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.lmdesk).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ChatHistoryPath returns the path to the saved chat sessions directory.
func (d *Dir) ChatHistoryPath() string {
	return filepath.Join(d.path, ChatHistoryDirName)
}

// CallLogPath returns the path to the LLM call log directory.
func (d *Dir) CallLogPath() string {
	return filepath.Join(d.path, CallLogDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// PromptOverridesPath returns the path to the prompt override store file.
func (d *Dir) PromptOverridesPath() string {
	return filepath.Join(d.path, PromptOverridesFileName)
}

// OllamaDataPath returns the host path for the Ollama model cache.
func (d *Dir) OllamaDataPath() string {
	return filepath.Join(d.path, OllamaDirName)
}

// SessionDataDir returns the data directory for a single session's uploads.
func (d *Dir) SessionDataDir(sessionID string) string {
	return filepath.Join(d.DataPath(), sessionID)
}

// UploadPath returns the path for an uploaded file belonging to a session.
func (d *Dir) UploadPath(sessionID, fileName string) string {
	return filepath.Join(d.SessionDataDir(sessionID), fileName)
}

// EnsureSessionDataDir creates the upload directory for a session.
func (d *Dir) EnsureSessionDataDir(sessionID string) error {
	return os.MkdirAll(d.SessionDataDir(sessionID), 0o755)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.DataPath(), d.ChatHistoryPath(), d.CallLogPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
