package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/backend"
	"github.com/nchauhan/lmdesk/internal/calllog"
	"github.com/nchauhan/lmdesk/internal/chat"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/dataset"
	"github.com/nchauhan/lmdesk/internal/extract"
	"github.com/nchauhan/lmdesk/internal/history"
	"github.com/nchauhan/lmdesk/internal/home"
	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/prompts/analysis"
	"github.com/nchauhan/lmdesk/internal/prompts/assistant"
	"github.com/nchauhan/lmdesk/internal/prompts/notes"
	"github.com/nchauhan/lmdesk/internal/prompts/ocr"
	"github.com/nchauhan/lmdesk/internal/prompts/qna"
	promptquiz "github.com/nchauhan/lmdesk/internal/prompts/quiz"
	"github.com/nchauhan/lmdesk/internal/prompts/suggest"
	"github.com/nchauhan/lmdesk/internal/prompts/textfix"
	"github.com/nchauhan/lmdesk/internal/prompts/translate"
	"github.com/nchauhan/lmdesk/internal/providers"
	"github.com/nchauhan/lmdesk/internal/quiz"
	"github.com/nchauhan/lmdesk/internal/sandbox"
	"github.com/nchauhan/lmdesk/internal/server/endpoints"
	"github.com/nchauhan/lmdesk/internal/svcctx"
)

// Server is the main lmdesk HTTP server. When autostart is enabled it also
// manages the Ollama container lifecycle, starting it on server start and
// stopping it on shutdown.
type Server struct {
	httpServer     *http.Server
	backendManager *backend.DockerManager
	backendClient  *backend.Client
	autostarted    bool
	registry       *providers.Registry
	configMgr      *config.Manager
	homeDir        *home.Dir
	recorder       *calllog.Recorder
	logger         *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the lmdesk home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Home == nil {
		return nil, errors.New("home directory is required")
	}

	appCfg := cfg.ConfigManager.Get()

	// Create provider registry with hot reload
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	registry.Reload(appCfg.ToProviderRegistryConfig())
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToProviderRegistryConfig())
		cfg.Logger.Info("provider registry reloaded from config")
	})

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		homeDir:   cfg.Home,
		logger:    cfg.Logger,
	}

	// The Docker manager is only needed when autostart is enabled.
	if appCfg.Backend.Autostart {
		mgr, err := backend.NewDockerManager(backend.DockerConfig{
			ContainerName: appCfg.Backend.ContainerName,
			Image:         appCfg.Backend.Image,
			DataPath:      appCfg.Backend.DataPath,
			HostPort:      appCfg.Backend.Port,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create backend manager: %w", err)
		}
		s.backendManager = mgr
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{BackendManager: s.backendManager}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	return s, nil
}

// Start starts the server and, if needed, the Ollama backend.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	appCfg := s.configMgr.Get()

	if err := s.homeDir.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to prepare home directory: %w", err)
	}

	client := backend.NewClient(appCfg.Backend.BaseURL)
	if err := client.HealthCheck(ctx); err != nil {
		if s.backendManager == nil {
			s.setNotRunning()
			return fmt.Errorf("backend unreachable at %s (enable backend.autostart or start Ollama manually): %w",
				appCfg.Backend.BaseURL, err)
		}

		s.logger.Info("backend unreachable, starting Ollama container",
			"container", appCfg.Backend.ContainerName)
		if err := s.backendManager.ValidateExisting(ctx); err != nil {
			s.setNotRunning()
			return fmt.Errorf("existing Ollama container incompatible: %w", err)
		}
		if err := s.backendManager.Start(ctx); err != nil {
			s.setNotRunning()
			return fmt.Errorf("failed to start Ollama: %w", err)
		}
		s.autostarted = true
		if err := s.backendManager.WaitReady(ctx, 60*time.Second); err != nil {
			_ = s.shutdown()
			return fmt.Errorf("Ollama did not become ready: %w", err)
		}
	}
	s.backendClient = client
	s.logger.Info("backend is ready", "url", appCfg.Backend.BaseURL)

	services, err := s.buildServices()
	if err != nil {
		_ = s.shutdown()
		return err
	}
	s.services = services

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// buildServices constructs the service graph attached to request contexts.
func (s *Server) buildServices() (*svcctx.Services, error) {
	appCfg := s.configMgr.Get()

	promptStore, err := prompts.NewStore(s.homeDir.PromptOverridesPath(), s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open prompt override store: %w", err)
	}
	resolver := prompts.NewResolver(promptStore, s.logger)
	for _, register := range []func(*prompts.Resolver){
		analysis.RegisterPrompts,
		suggest.RegisterPrompts,
		notes.RegisterPrompts,
		qna.RegisterPrompts,
		promptquiz.RegisterPrompts,
		ocr.RegisterPrompts,
		translate.RegisterPrompts,
		textfix.RegisterPrompts,
		assistant.RegisterPrompts,
	} {
		register(resolver)
	}

	historyStore, err := history.NewStore(s.homeDir.ChatHistoryPath(), s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat history store: %w", err)
	}

	recorder, err := calllog.NewRecorder(s.homeDir.CallLogPath(), s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open call log: %w", err)
	}
	s.recorder = recorder

	executor := sandbox.NewExecutor(sandbox.Config{
		Interpreter: appCfg.Sandbox.Interpreter,
		Timeout:     time.Duration(appCfg.Sandbox.TimeoutSeconds) * time.Second,
	}, s.logger)

	return &svcctx.Services{
		Backend:       s.backendClient,
		Registry:      s.registry,
		Config:        s.configMgr,
		Logger:        s.logger,
		Home:          s.homeDir,
		Prompts:       resolver,
		DatasetCache:  dataset.NewCache(),
		Extractor:     &extract.Extractor{Logger: s.logger},
		Sandbox:       executor,
		Conversations: chat.NewManager(),
		DataSessions:  chat.NewDataSessionManager(),
		History:       historyStore,
		Quizzes:       quiz.NewRegistry(),
		CallRecorder:  recorder,
		CallStore:     calllog.NewStore(s.homeDir.CallLogPath()),
	}, nil
}

// shutdown performs graceful shutdown of the HTTP server and, when this
// process started it, the Ollama container.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.recorder != nil {
		s.recorder.Close()
	}

	if s.backendManager != nil {
		if s.autostarted {
			s.logger.Info("stopping Ollama container")
			if err := s.backendManager.Stop(shutdownCtx); err != nil {
				s.logger.Error("Ollama stop error", "error", err)
			}
		}
		if err := s.backendManager.Close(); err != nil {
			s.logger.Error("backend manager close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// BackendClient returns the Ollama client.
// Returns nil if the server hasn't started yet.
func (s *Server) BackendClient() *backend.Client {
	return s.backendClient
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the backend is reachable and the
// service graph is built.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.backendClient == nil || s.services == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
