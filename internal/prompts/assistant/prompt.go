// Package assistant holds the default system prompt for the general chat app.
package assistant

import (
	_ "embed"

	"github.com/nchauhan/lmdesk/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "apps.chat.system"

// SystemPrompt returns the default chat system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// RegisterPrompts registers the chat prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        systemPrompt,
		Description: "Default system prompt for the general chat app",
	})
}
