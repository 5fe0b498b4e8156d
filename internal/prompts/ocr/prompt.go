// Package ocr builds the vision OCR prompt.
package ocr

import (
	_ "embed"

	"github.com/nchauhan/lmdesk/internal/prompts"
	"github.com/nchauhan/lmdesk/internal/providers"
)

//go:embed user.tmpl
var userPrompt string

// PromptKey is the hierarchical key for this prompt.
const PromptKey = "apps.ocr.user"

// RegisterPrompts registers the OCR prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        userPrompt,
		Description: "OCR prompt - extract all readable text from an image as markdown",
	})
}

// Input contains the image for an OCR request.
type Input struct {
	Image []byte // Raw image bytes; the provider handles base64 encoding

	PromptOverride string
}

// CreateChatRequest builds the vision chat request for one image.
func CreateChatRequest(input Input) (*providers.ChatRequest, error) {
	text := input.PromptOverride
	if text == "" {
		text = userPrompt
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{
				Role:    "user",
				Content: text,
				Images:  [][]byte{input.Image},
			},
		},
	}, nil
}
