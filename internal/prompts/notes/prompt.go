// Package notes builds the lecture-notes generation prompt.
package notes

import (
	_ "embed"

	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/providers"
)

//go:embed user.tmpl
var userPrompt string

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "apps.notes.user"

// RegisterPrompts registers the notes prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        userPrompt,
		Description: "Notes generation prompt - comprehensive markdown notes with LaTeX math",
	})
}

// Input contains the topics for a notes request.
type Input struct {
	Topics string

	PromptOverride string
}

// CreateChatRequest builds the chat request for a notes turn.
func CreateChatRequest(input Input) (*providers.ChatRequest, error) {
	text := input.PromptOverride
	if text == "" {
		text = userPrompt
	}

	rendered, err := prompts.Render(text, input)
	if err != nil {
		return nil, err
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "user", Content: rendered},
		},
	}, nil
}
