// Package textfix builds the formatting/spelling repair prompt. Unlike the
// chat apps this one goes through the bare generate endpoint, so the builder
// returns the rendered prompt string.
package textfix

import (
	_ "embed"

	"github.com/nchauhan/lmdesk/internal/prompts"
)

//go:embed user.tmpl
var userPrompt string

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "apps.fix.user"

// RegisterPrompts registers the textfix prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        userPrompt,
		Description: "Text fixer prompt - rewrite text with proper formatting and spelling",
	})
}

// Input contains the raw text for a fix request.
type Input struct {
	Text string

	PromptOverride string
}

// BuildPrompt renders the generate prompt for the given text.
func BuildPrompt(input Input) (string, error) {
	text := input.PromptOverride
	if text == "" {
		text = userPrompt
	}
	return prompts.Render(text, input)
}
