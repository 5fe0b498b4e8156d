// Package calllog records every LLM API call with its prompt key, response,
// and metrics for traceability. Records are appended to day-stamped JSONL
// files.
package calllog

import (
	"time"

	"github.com/google/uuid"

	"github.com/nchauhan/lmdesk/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	App       string `json:"app,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// Prompt traceability
	PromptKey string `json:"prompt_key"`

	// Model info
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`

	// Token usage
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// Response
	Response string `json:"response"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	// Context references (all optional)
	App       string
	SessionID string

	// Prompt identification (required for traceability)
	PromptKey string

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		App:          opts.App,
		SessionID:    opts.SessionID,
		PromptKey:    opts.PromptKey,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		Response:     result.Content,
		Success:      result.Success,
	}

	if opts.Temperature != nil {
		call.Temperature = opts.Temperature
	}

	if !result.Success {
		call.Error = result.ErrorMessage
	}

	return call
}
