// Package translate builds the translation prompt.
package translate

import (
	_ "embed"

	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/providers"
)

//go:embed user.tmpl
var userPrompt string

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "apps.translate.user"

// Languages lists the supported target languages.
var Languages = []string{
	"Spanish", "French", "Dutch", "Hindi", "Arabic",
	"Japanese", "Chinese", "Korean", "Hebrew",
}

// Supported reports whether a target language is in the supported set.
func Supported(language string) bool {
	for _, l := range Languages {
		if l == language {
			return true
		}
	}
	return false
}

// RegisterPrompts registers the translation prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        userPrompt,
		Description: "Translation prompt - reply with the translation only",
	})
}

// Input contains the text and target language for a translation request.
type Input struct {
	TargetLanguage string
	Text           string

	PromptOverride string
}

// CreateChatRequest builds the chat request for a translation turn.
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
