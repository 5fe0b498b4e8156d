package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string
	ResponseJSON json.RawMessage

	// Responses, when set, is consumed one entry per request in order,
	// overriding ResponseText. Extra requests reuse the last entry.
	Responses []string

	// FragmentSize controls how many bytes each stream callback receives.
	// Zero means the whole response in one fragment.
	FragmentSize int

	// State
	requestCount atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	return c.doRequest(ctx, req, nil)
}

// ChatStream sends a mock chat request and delivers the response through fn
// in FragmentSize pieces. The returned Content always equals the
// concatenation of the delivered fragments.
func (c *MockClient) ChatStream(ctx context.Context, req *ChatRequest, fn StreamFunc) (*ChatResult, error) {
	if fn == nil {
		return nil, fmt.Errorf("stream callback must not be nil")
	}
	return c.doRequest(ctx, req, fn)
}

// Generate sends a bare prompt as a single user message.
func (c *MockClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	result, err := c.Chat(ctx, &ChatRequest{
		Model:    model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func (c *MockClient) doRequest(ctx context.Context, req *ChatRequest, fn StreamFunc) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	// Check if we should fail
	if c.ShouldFail {
		result.Success = false
		result.ErrorType = "mock_failure"
		result.ErrorMessage = "mock client configured to fail"
		result.TotalTime = time.Since(start)
		return result, fmt.Errorf("%w: mock client configured to fail", ErrBackendUnavailable)
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		result.Success = false
		result.ErrorType = "mock_failure"
		result.ErrorMessage = fmt.Sprintf("mock client failed after %d requests", c.FailAfter)
		result.TotalTime = time.Since(start)
		return result, fmt.Errorf("mock client failed after %d requests", c.FailAfter)
	}

	// Simulate latency
	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		result.Success = false
		result.ErrorType = "context_cancelled"
		result.ErrorMessage = ctx.Err().Error()
		result.TotalTime = time.Since(start)
		return result, ctx.Err()
	}

	content := c.ResponseText
	if len(c.Responses) > 0 {
		idx := int(count) - 1
		if idx >= len(c.Responses) {
			idx = len(c.Responses) - 1
		}
		content = c.Responses[idx]
	}
	if req.ResponseFormat != nil && len(c.ResponseJSON) > 0 {
		content = string(c.ResponseJSON)
	}

	if fn != nil {
		size := c.FragmentSize
		if size <= 0 {
			size = len(content)
		}
		for i := 0; i < len(content); i += size {
			end := i + size
			if end > len(content) {
				end = len(content)
			}
			if err := fn(content[i:end]); err != nil {
				result.Success = false
				result.ErrorType = "stream_aborted"
				result.ErrorMessage = err.Error()
				result.TotalTime = time.Since(start)
				return result, err
			}
		}
	}

	result.Success = true
	result.Content = content
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	// Simulate token counting
	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}
	completionTokens := len(content) / 4

	result.PromptTokens = promptTokens
	result.CompletionTokens = completionTokens
	result.TotalTokens = promptTokens + completionTokens

	if req.ResponseFormat != nil && len(c.ResponseJSON) > 0 {
		result.ParsedJSON = c.ResponseJSON
	}

	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Reset resets the request counter.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
