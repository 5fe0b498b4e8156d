// Package suggest builds the prompt that asks for plottable dataset questions.
// The reply carries a bracketed single-quoted list parsed by the extract
// package.
package suggest

import (
	_ "embed"

	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/providers"
)

//go:embed user.tmpl
var userPrompt string

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "apps.suggest.user"

// RegisterPrompts registers the suggestion prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        userPrompt,
		Description: "Question suggestion prompt - asks for plottable questions as a quoted list",
	})
}

// Input contains the dataset summary for a suggestion request.
type Input struct {
	FileName           string
	NumericalColumns   string
	CategoricalColumns string

	PromptOverride string
}

// CreateChatRequest builds the chat request for a suggestion turn.
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
