package providers

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrBackendUnavailable marks network-level failures reaching the model
// backend, so callers can distinguish "backend down" from a bad reply.
var ErrBackendUnavailable = errors.New("model backend unavailable")

// StreamFunc receives one reply fragment at a time, in generation order.
// Returning an error aborts the stream.
type StreamFunc func(fragment string) error

// LLMClient is the primary interface for chat/completion requests.
type LLMClient interface {
	// Chat sends a single-shot chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// ChatStream sends a chat request and delivers the reply incrementally.
	// Fragments concatenated in arrival order equal the single-shot reply
	// for the same request. The returned result carries the full text.
	ChatStream(ctx context.Context, req *ChatRequest, fn StreamFunc) (*ChatResult, error)

	// Generate sends a bare prompt completion request (no chat framing).
	Generate(ctx context.Context, model, prompt string) (string, error)

	// Name returns the client identifier (e.g., "ollama").
	Name() string
}

// Message represents a chat message.
type Message struct {
	Role    string   `json:"role"` // "system", "user", "assistant"
	Content string   `json:"content"`
	Images  [][]byte `json:"-"` // For vision models (base64 encoded in request)
}

// ResponseFormat specifies structured output format.
type ResponseFormat struct {
	Type       string          `json:"type"` // "json_schema"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters
	Temperature float64 `json:"temperature,omitempty"`
	Timeout     time.Duration

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	// Response content
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"` // Parsed if ResponseFormat was set

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Timing
	ExecutionTime time.Duration `json:"execution_time"`
	TotalTime     time.Duration `json:"total_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	// Success/error
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
