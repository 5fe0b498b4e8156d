// Package quiz builds the multiple-choice quiz generation prompt.
package quiz

import (
	_ "embed"
	"encoding/json"

	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/providers"
)

//go:embed user.tmpl
var userPrompt string

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "apps.quiz.user"

// RegisterPrompts registers the quiz prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        userPrompt,
		Description: "Quiz generation prompt - multiple choice questions with boolean-marked options",
	})
}

// Input contains the topic for a quiz request.
type Input struct {
	Topic string

	PromptOverride string
}

// CreateChatRequest builds the structured chat request for quiz generation.
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
		ResponseFormat: buildResponseFormat(),
	}, nil
}

func buildResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(QuizSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}
