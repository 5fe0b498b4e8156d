// Package prompts provides prompt management with embedded defaults and
// user-level overrides.
//
// Embedded .tmpl files in code are the source of truth for defaults. An
// override store on disk allows customizing any prompt without rebuilding.
//
// Resolution order for a key:
//  1. Override from the store (if one exists)
//  2. Embedded default (from .tmpl files in code)
package prompts

import "time"

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: apps.notes.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// Override represents a user customization of an embedded prompt.
type Override struct {
	Key       string    `json:"key"`
	Text      string    `json:"text"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"` // true if from the override store
}
