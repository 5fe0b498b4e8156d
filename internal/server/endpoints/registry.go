package endpoints

import (
	"github.com/nchauhan/lmdesk/internal/api"
	"github.com/nchauhan/lmdesk/internal/backend"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	BackendManager *backend.DockerManager
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{BackendManager: cfg.BackendManager},

		// Data analysis endpoints
		&DataUploadEndpoint{},
		&DataContextEndpoint{},
		&DataSuggestionsEndpoint{},
		&DataChatEndpoint{},

		// OCR endpoint
		&OCREndpoint{},

		// Notes endpoints
		&NotesEndpoint{},
		&NotesQuestionsEndpoint{},
		&NotesAnswerEndpoint{},

		// Quiz endpoints
		&QuizCreateEndpoint{},
		&QuizGetEndpoint{},
		&QuizAdvanceEndpoint{},

		// Chat endpoints
		&ChatMessageEndpoint{},
		&ChatSaveEndpoint{},
		&ChatSessionsEndpoint{},
		&ChatResetEndpoint{},
		&ChatLoadEndpoint{},
		&ChatDeleteSavedEndpoint{},

		// Translation and text fixing
		&TranslateEndpoint{},
		&FixEndpoint{},

		// Prompt endpoints
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},
		&SetPromptEndpoint{},
		&ClearPromptEndpoint{},

		// Call log endpoints
		&ListCallsEndpoint{},
		&CallCountsEndpoint{},
	}
}

// DataCommands returns endpoints for data analysis operations.
// This groups data-related commands under the "data" subcommand.
func DataCommands() []api.Endpoint {
	return []api.Endpoint{
		&DataUploadEndpoint{},
		&DataContextEndpoint{},
		&DataSuggestionsEndpoint{},
		&DataChatEndpoint{},
	}
}

// ChatCommands returns endpoints for chat session operations.
func ChatCommands() []api.Endpoint {
	return []api.Endpoint{
		&ChatMessageEndpoint{},
		&ChatSaveEndpoint{},
		&ChatSessionsEndpoint{},
		&ChatResetEndpoint{},
		&ChatLoadEndpoint{},
		&ChatDeleteSavedEndpoint{},
	}
}

// NotesCommands returns endpoints for notes operations.
func NotesCommands() []api.Endpoint {
	return []api.Endpoint{
		&NotesEndpoint{},
		&NotesQuestionsEndpoint{},
		&NotesAnswerEndpoint{},
	}
}

// QuizCommands returns endpoints for quiz operations.
func QuizCommands() []api.Endpoint {
	return []api.Endpoint{
		&QuizCreateEndpoint{},
		&QuizGetEndpoint{},
		&QuizAdvanceEndpoint{},
	}
}

// PromptCommands returns endpoints for prompt operations.
func PromptCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},
		&SetPromptEndpoint{},
		&ClearPromptEndpoint{},
	}
}

// CallCommands returns endpoints for call log operations.
func CallCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListCallsEndpoint{},
		&CallCountsEndpoint{},
	}
}
