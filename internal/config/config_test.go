package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend.BaseURL != "http://localhost:11434" {
		t.Errorf("unexpected backend URL: %s", cfg.Backend.BaseURL)
	}
	if _, ok := cfg.Providers["ollama"]; !ok {
		t.Error("expected default ollama provider")
	}
	if cfg.Apps.Data.Model == "" {
		t.Error("expected default model for the data app")
	}
	if cfg.Sandbox.TimeoutSeconds <= 0 {
		t.Error("expected positive sandbox timeout")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestConfig_AppTimeout(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("uses app-specific timeout", func(t *testing.T) {
		app := AppCfg{TimeoutSeconds: 12}
		if got := cfg.AppTimeout(app); got != 12*time.Second {
			t.Errorf("expected 12s, got %v", got)
		}
	})

	t.Run("falls back to global default", func(t *testing.T) {
		app := AppCfg{}
		want := time.Duration(cfg.Apps.DefaultTimeoutSeconds) * time.Second
		if got := cfg.AppTimeout(app); got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

func TestConfig_ToProviderRegistryConfig(t *testing.T) {
	os.Setenv("TEST_GROQ_KEY", "gsk-123")
	defer os.Unsetenv("TEST_GROQ_KEY")

	cfg := &Config{
		Backend: BackendCfg{BaseURL: "http://127.0.0.1:11434"},
		Providers: map[string]LLMProviderCfg{
			"ollama": {Type: "ollama", Enabled: true},
			"groq":   {Type: "openai", APIKey: "${TEST_GROQ_KEY}", Enabled: true},
		},
	}

	rc := cfg.ToProviderRegistryConfig()

	if rc.Providers["groq"].APIKey != "gsk-123" {
		t.Errorf("expected resolved API key, got %s", rc.Providers["groq"].APIKey)
	}
	if rc.Providers["ollama"].BaseURL != "http://127.0.0.1:11434" {
		t.Errorf("ollama provider should inherit backend URL, got %s", rc.Providers["ollama"].BaseURL)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")

		configContent := `
backend:
  base_url: "http://example.test:11434"
`
		if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Backend.BaseURL != "http://example.test:11434" {
			t.Errorf("expected http://example.test:11434, got %s", cfg.Backend.BaseURL)
		}
	})
}

func TestManager_OnChange_Multiple(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
backend:
  base_url: "http://localhost:11434"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Register multiple callbacks
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
backend:
  base_url: "http://localhost:11434"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Call Get concurrently to verify no race conditions
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cfg := mgr.Get()
				_ = cfg.Backend.BaseURL
			}
			done <- struct{}{}
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
backend:
  base_url: "http://initial:11434"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Verify initial value
	cfg := mgr.Get()
	if cfg.Backend.BaseURL != "http://initial:11434" {
		t.Errorf("initial value mismatch: got %s", cfg.Backend.BaseURL)
	}

	// Track callback invocations
	var callbackCount atomic.Int32
	var lastValue atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.Backend.BaseURL)
	})

	// Start watching
	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	// Update the config file
	newContent := `
backend:
  base_url: "http://updated:11434"
`
	if err := os.WriteFile(configFile, []byte(newContent), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	// Wait for the watcher to detect the change (fsnotify is async)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Error("callback was not invoked after config file change")
	}

	// Verify the config was updated
	newCfg := mgr.Get()
	if newCfg.Backend.BaseURL != "http://updated:11434" {
		t.Errorf("config not updated: got %s", newCfg.Backend.BaseURL)
	}

	// Verify callback received the updated value
	if v := lastValue.Load(); v != "http://updated:11434" {
		t.Errorf("callback received wrong value: %v", v)
	}
}
