package providers

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Registry holds references to LLM clients. It supports config-driven
// instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]LLMClient
	logger  *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]LLMClient),
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers an LLM client by name.
func (r *Registry) Register(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// Unregister removes an LLM client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	if r.logger != nil {
		r.logger.Info("unregistered LLM client", "name", name)
	}
}

// Get returns an LLM client by name.
func (r *Registry) Get(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// List returns all registered LLM client names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// Has checks if an LLM client is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}

// Clients returns a copy of the registered client map.
func (r *Registry) Clients() map[string]LLMClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]LLMClient, len(r.clients))
	for name, client := range r.clients {
		result[name] = client
	}
	return result
}

// RegistryConfig defines the providers to instantiate from config.
// This mirrors the config.Config structure for provider setup.
type RegistryConfig struct {
	// Providers maps provider names to their config
	Providers map[string]ProviderConfig
}

// ProviderConfig matches config.LLMProviderCfg with resolved API key.
type ProviderConfig struct {
	Type      string  // "ollama", "openai"
	BaseURL   string  // Endpoint URL
	Model     string  // Default model name
	APIKey    string  // Resolved API key (hosted providers only)
	RateLimit float64 // Requests per second
	Enabled   bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.applyConfig(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured will be unregistered.
// Providers with changed settings will be re-registered.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)

	for name, provCfg := range cfg.Providers {
		if !usable(provCfg) {
			continue
		}
		want[name] = true

		existing, hasExisting := r.clients[name]
		if !hasExisting || needsUpdate(existing, provCfg) {
			client := createLLMClient(provCfg)
			if client != nil {
				r.clients[name] = client
				if r.logger != nil {
					if hasExisting {
						r.logger.Info("updated LLM client", "name", name, "type", provCfg.Type)
					} else {
						r.logger.Info("registered LLM client", "name", name, "type", provCfg.Type)
					}
				}
			}
		}
	}

	// Remove providers that are no longer configured
	for name := range r.clients {
		if !want[name] {
			delete(r.clients, name)
			if r.logger != nil {
				r.logger.Info("unregistered LLM client", "name", name)
			}
		}
	}
}

// applyConfig applies configuration without locking (used during init).
func (r *Registry) applyConfig(cfg RegistryConfig) {
	for name, provCfg := range cfg.Providers {
		if !usable(provCfg) {
			continue
		}
		client := createLLMClient(provCfg)
		if client != nil {
			r.clients[name] = client
		}
	}
}

// usable reports whether a provider config can produce a working client.
// Local providers need no API key; hosted ones do.
func usable(cfg ProviderConfig) bool {
	if !cfg.Enabled {
		return false
	}
	if cfg.Type == "openai" && cfg.APIKey == "" {
		return false
	}
	return true
}

// createLLMClient creates an LLM client based on provider type.
func createLLMClient(cfg ProviderConfig) LLMClient {
	switch cfg.Type {
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
		})
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			RateLimit:    cfg.RateLimit,
		})
	default:
		return nil
	}
}

// needsUpdate checks if an LLM client needs to be recreated.
func needsUpdate(client LLMClient, cfg ProviderConfig) bool {
	switch c := client.(type) {
	case *OllamaClient:
		base := cfg.BaseURL
		if base == "" {
			base = OllamaBaseURL
		}
		return c.baseURL != strings.TrimSuffix(base, "/") || c.defaultModel != cfg.Model
	case *OpenAIClient:
		return c.apiKey != cfg.APIKey ||
			c.baseURL != cfg.BaseURL ||
			c.defaultModel != cfg.Model ||
			c.rateLimit != cfg.RateLimit
	default:
		return true
	}
}
