package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/backend"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

var _ api.Endpoint = (*HealthEndpoint)(nil)

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

var _ api.Endpoint = (*ReadyEndpoint)(nil)

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Backend: "ok"}

	client := svcctx.BackendFrom(r.Context())
	if client == nil {
		resp.Status = "degraded"
		resp.Backend = "not_initialized"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	if err := client.HealthCheck(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Backend = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes the Ollama backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// BackendStatus shows the backend container and health state.
type BackendStatus struct {
	Container string   `json:"container"`
	Health    string   `json:"health"`
	URL       string   `json:"url"`
	Models    []string `json:"models,omitempty"`
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server    string        `json:"server"`
	Providers []string      `json:"providers"`
	Backend   BackendStatus `json:"backend"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct {
	// BackendManager is set by the server; it is not part of Services.
	BackendManager *backend.DockerManager
}

var _ api.Endpoint = (*StatusEndpoint)(nil)

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Server: "running"}

	if registry := svcctx.RegistryFrom(r.Context()); registry != nil {
		resp.Providers = registry.List()
	}

	if e.BackendManager != nil {
		status, err := e.BackendManager.Status(r.Context())
		if err != nil {
			resp.Backend.Container = "error"
		} else {
			resp.Backend.Container = string(status)
		}
	} else {
		resp.Backend.Container = "external"
	}

	client := svcctx.BackendFrom(r.Context())
	if client == nil {
		resp.Backend.Health = "not_initialized"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Backend.URL = client.URL()
	if err := client.HealthCheck(r.Context()); err != nil {
		resp.Backend.Health = "unhealthy"
	} else {
		resp.Backend.Health = "healthy"
		if models, err := client.ListModels(r.Context()); err == nil {
			for _, m := range models {
				resp.Backend.Models = append(resp.Backend.Models, m.Name)
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			fmt.Printf("Server: %s\n", resp.Server)
			return nil
		},
	}
}
