package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/home"
	"github.com/nchauhan/lmdesk/internal/providers"
)

// fakeOllama returns an httptest server that answers the health probe and
// model listing the way Ollama does.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	})
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"models":[{"name":"gemma3"},{"name":"qwen3:latest"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newTestServer builds a Server against a fake backend with an isolated home
// directory, starts it on an ephemeral-ish port, and waits until it answers.
// Extra YAML sections can be appended to the generated config.
func newTestServer(t *testing.T, port string, extraCfg ...string) (*Server, string, context.CancelFunc, chan error) {
	t.Helper()

	backendSrv := fakeOllama(t)

	homePath := t.TempDir()
	cfgPath := filepath.Join(homePath, "config.yaml")
	cfgYAML := fmt.Sprintf("backend:\n  base_url: %s\n  autostart: false\n", backendSrv.URL)
	for _, extra := range extraCfg {
		cfgYAML += extra
	}
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	cfgMgr, err := config.NewManager(cfgPath)
	require.NoError(t, err)

	homeDir, err := home.New(homePath)
	require.NoError(t, err)

	srv, err := New(Config{
		Host:          "127.0.0.1",
		Port:          port,
		Home:          homeDir,
		ConfigManager: cfgMgr,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	baseURL := "http://127.0.0.1:" + port
	if err := waitForServer(ctx, baseURL, 15*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}

	return srv, baseURL, cancel, errCh
}

func TestServer_Lifecycle(t *testing.T) {
	srv, baseURL, cancel, errCh := newTestServer(t, "18080")
	defer cancel()

	t.Run("health_endpoint", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var health struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		require.Equal(t, "ok", health.Status)
	})

	t.Run("ready_endpoint", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("backend_client_works", func(t *testing.T) {
		client := srv.BackendClient()
		require.NotNil(t, client)
		require.NoError(t, client.HealthCheck(context.Background()))
	})

	t.Run("is_running", func(t *testing.T) {
		require.True(t, srv.IsRunning())
	})

	t.Run("double_start_fails", func(t *testing.T) {
		err := srv.Start(context.Background())
		require.Error(t, err)
	})

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down within timeout")
	}

	require.False(t, srv.IsRunning())
}

func TestServer_BackendUnreachable(t *testing.T) {
	homePath := t.TempDir()
	cfgPath := filepath.Join(homePath, "config.yaml")
	// Nothing listens on this port; autostart disabled so startup must fail.
	cfgYAML := "backend:\n  base_url: http://127.0.0.1:1\n  autostart: false\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	cfgMgr, err := config.NewManager(cfgPath)
	require.NoError(t, err)
	homeDir, err := home.New(homePath)
	require.NoError(t, err)

	srv, err := New(Config{
		Host:          "127.0.0.1",
		Port:          "18099",
		Home:          homeDir,
		ConfigManager: cfgMgr,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = srv.Start(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "backend unreachable")
	require.False(t, srv.IsRunning())
}

func TestServer_RequiresConfig(t *testing.T) {
	homeDir, err := home.New(t.TempDir())
	require.NoError(t, err)

	_, err = New(Config{Home: homeDir})
	require.Error(t, err)
}

func TestServer_ProviderReload(t *testing.T) {
	srv, _, cancel, _ := newTestServer(t, "18081")
	defer cancel()

	registry := srv.Registry()
	require.True(t, registry.Has("ollama"))

	// Handlers resolve clients by name, so a test double can be swapped in.
	registry.Register("ollama", providers.NewMockClient())
	client, err := registry.Get("ollama")
	require.NoError(t, err)
	require.Equal(t, providers.MockClientName, client.Name())
}

// waitForServer polls the server until it responds or timeout.
func waitForServer(ctx context.Context, baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		time.Sleep(200 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %s", timeout)
}
