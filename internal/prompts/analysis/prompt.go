// Package analysis builds the code-writing prompt for dataset questions.
package analysis

import (
	_ "embed"

	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/providers"
)

//go:embed user.tmpl
var userPrompt string

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "apps.data.user"

// RegisterPrompts registers the analysis prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        userPrompt,
		Description: "Data analysis prompt - asks the model to answer a dataset question with executable Python",
	})
}

// Input contains the dataset context and question for an analysis request.
type Input struct {
	Columns            string
	NumericalColumns   string
	CategoricalColumns string
	DTypes             string
	Question           string

	// PromptOverride allows using a stored prompt override.
	// If empty, uses the embedded default.
	PromptOverride string
}

// CreateChatRequest builds the chat request for an analysis turn.
// The caller sets Model, Temperature, and Timeout from app config.
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
