// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/nchauhan/lmdesk/internal/backend"
	"github.com/nchauhan/lmdesk/internal/calllog"
	"github.com/nchauhan/lmdesk/internal/chat"
	"github.com/nchauhan/lmdesk/internal/config"
	"github.com/nchauhan/lmdesk/internal/dataset"
	"github.com/nchauhan/lmdesk/internal/extract"
	"github.com/nchauhan/lmdesk/internal/history"
	"github.com/nchauhan/lmdesk/internal/home"
	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/providers"
	"github.com/nchauhan/lmdesk/internal/quiz"
	"github.com/nchauhan/lmdesk/internal/sandbox"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Backend       *backend.Client
	Registry      *providers.Registry
	Config        *config.Manager
	Logger        *slog.Logger
	Home          *home.Dir
	Prompts       *prompts.Resolver
	DatasetCache  *dataset.Cache
	Extractor     *extract.Extractor
	Sandbox       *sandbox.Executor
	Conversations *chat.Manager
	DataSessions  *chat.DataSessionManager
	History       *history.Store
	Quizzes       *quiz.Registry
	CallRecorder  *calllog.Recorder
	CallStore     *calllog.Store
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// BackendFrom extracts the Ollama backend client from context.
func BackendFrom(ctx context.Context) *backend.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Backend
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// PromptsFrom extracts the prompt resolver from context.
func PromptsFrom(ctx context.Context) *prompts.Resolver {
	if s := ServicesFrom(ctx); s != nil {
		return s.Prompts
	}
	return nil
}

// DatasetCacheFrom extracts the dataset context cache from context.
func DatasetCacheFrom(ctx context.Context) *dataset.Cache {
	if s := ServicesFrom(ctx); s != nil {
		return s.DatasetCache
	}
	return nil
}

// ExtractorFrom extracts the reply extractor from context.
func ExtractorFrom(ctx context.Context) *extract.Extractor {
	if s := ServicesFrom(ctx); s != nil {
		return s.Extractor
	}
	return nil
}

// SandboxFrom extracts the code executor from context.
func SandboxFrom(ctx context.Context) *sandbox.Executor {
	if s := ServicesFrom(ctx); s != nil {
		return s.Sandbox
	}
	return nil
}

// ConversationsFrom extracts the conversation manager from context.
func ConversationsFrom(ctx context.Context) *chat.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Conversations
	}
	return nil
}

// DataSessionsFrom extracts the CSV analysis session manager from context.
func DataSessionsFrom(ctx context.Context) *chat.DataSessionManager {
	if s := ServicesFrom(ctx); s != nil {
		return s.DataSessions
	}
	return nil
}

// HistoryFrom extracts the saved-session store from context.
func HistoryFrom(ctx context.Context) *history.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.History
	}
	return nil
}

// QuizzesFrom extracts the quiz registry from context.
func QuizzesFrom(ctx context.Context) *quiz.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Quizzes
	}
	return nil
}

// CallRecorderFrom extracts the LLM call recorder from context.
func CallRecorderFrom(ctx context.Context) *calllog.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.CallRecorder
	}
	return nil
}

// CallStoreFrom extracts the LLM call store from context.
func CallStoreFrom(ctx context.Context) *calllog.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.CallStore
	}
	return nil
}
