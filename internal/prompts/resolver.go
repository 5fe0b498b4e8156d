package prompts

import (
	"fmt"
	"log/slog"
	"sync"
)

// Resolver resolves prompts with user overrides.
// Resolution order: Override > Embedded default
type Resolver struct {
	store    *Store
	embedded map[string]EmbeddedPrompt
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewResolver creates a new prompt resolver. The store may be nil, in which
// case only embedded defaults are served.
func NewResolver(store *Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:    store,
		embedded: make(map[string]EmbeddedPrompt),
		logger:   logger,
	}
}

// Store returns the override store, or nil when overrides are disabled.
func (r *Resolver) Store() *Store {
	return r.store
}

// Register registers an embedded prompt.
// This should be called during initialization by each app package.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Compute hash if not provided
	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}

	// Extract variables if not provided
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// Resolve returns the override for a key if one exists, otherwise the
// embedded default.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	if r.store != nil {
		override, err := r.store.GetOverride(key)
		if err != nil {
			r.logger.Warn("failed to check prompt override", "key", key, "error", err)
			// Fall through to embedded default
		} else if override != nil {
			return &ResolvedPrompt{
				Key:        key,
				Text:       override.Text,
				Variables:  ExtractVariables(override.Text),
				IsOverride: true,
			}, nil
		}
	}

	r.mu.RLock()
	embedded, ok := r.embedded[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}

	return &ResolvedPrompt{
		Key:        key,
		Text:       embedded.Text,
		Variables:  embedded.Variables,
		IsOverride: false,
	}, nil
}

// RenderPrompt resolves a key and renders it against the given data.
func (r *Resolver) RenderPrompt(key string, data any) (string, error) {
	resolved, err := r.Resolve(key)
	if err != nil {
		return "", err
	}
	return Render(resolved.Text, data)
}

// GetEmbedded returns the embedded default for a key (no override resolution).
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// AllEmbedded returns all registered embedded prompts.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	return result
}
