package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-lmdesk")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-lmdesk" {
			t.Errorf("expected path /tmp/test-lmdesk, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-lmdesk")

	t.Run("DataPath", func(t *testing.T) {
		expected := "/tmp/test-lmdesk/data"
		if dir.DataPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.DataPath())
		}
	})

	t.Run("ChatHistoryPath", func(t *testing.T) {
		expected := "/tmp/test-lmdesk/chat_history"
		if dir.ChatHistoryPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ChatHistoryPath())
		}
	})

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-lmdesk/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})

	t.Run("UploadPath", func(t *testing.T) {
		expected := "/tmp/test-lmdesk/data/sess-1/sales.csv"
		if dir.UploadPath("sess-1", "sales.csv") != expected {
			t.Errorf("expected %s, got %s", expected, dir.UploadPath("sess-1", "sales.csv"))
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	// Use a temp directory
	tmpDir := t.TempDir()
	deskDir := filepath.Join(tmpDir, "lmdesk-test")

	dir, err := New(deskDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Directory shouldn't exist yet
	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	// Create it
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	// Now it should exist
	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}

	// Subdirectories should also exist
	for _, p := range []string{dir.DataPath(), dir.ChatHistoryPath(), dir.CallLogPath()} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			t.Errorf("%s should exist after EnsureExists", p)
		}
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	// Config doesn't exist
	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	// Create a config file
	configPath := dir.ConfigPath()
	if err := os.WriteFile(configPath, []byte("test: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Now it should exist
	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}
