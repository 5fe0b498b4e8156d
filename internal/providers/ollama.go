package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	OllamaName    = "ollama"
	OllamaBaseURL = "http://localhost:11434"
)

// OllamaConfig holds configuration for the Ollama client.
type OllamaConfig struct {
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration // Per-call ceiling when the request carries none
}

// OllamaClient implements LLMClient against a local Ollama server.
//
// The client performs no retries: a failed call fails the whole turn and the
// caller decides what to surface. Backend reachability is the backend
// manager's concern, checked once at startup, not per request.
type OllamaClient struct {
	baseURL      string
	defaultModel string
	timeout      time.Duration
	client       *http.Client
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OllamaBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}

	return &OllamaClient{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		defaultModel: cfg.DefaultModel,
		timeout:      cfg.Timeout,
		// Request deadlines come from the per-call context so streams are
		// not cut off by a transport-level timeout.
		client: &http.Client{},
	}
}

// Name returns the client identifier.
func (c *OllamaClient) Name() string {
	return OllamaName
}

// BaseURL returns the server URL the client talks to.
func (c *OllamaClient) BaseURL() string {
	return c.baseURL
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64-encoded
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool  `json:"done"`
	PromptEvalCount int   `json:"prompt_eval_count"`
	EvalCount       int   `json:"eval_count"`
	TotalDuration   int64 `json:"total_duration"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Chat sends a single-shot chat completion request.
func (c *OllamaClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	return c.doChat(ctx, req, nil)
}

// ChatStream sends a chat request and delivers the reply incrementally.
func (c *OllamaClient) ChatStream(ctx context.Context, req *ChatRequest, fn StreamFunc) (*ChatResult, error) {
	if fn == nil {
		return nil, fmt.Errorf("stream callback must not be nil")
	}
	return c.doChat(ctx, req, fn)
}

func (c *OllamaClient) doChat(ctx context.Context, req *ChatRequest, fn StreamFunc) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  OllamaName,
		ModelUsed: model,
		Attempts:  1,
	}

	oReq := ollamaChatRequest{
		Model:    model,
		Messages: make([]ollamaMessage, 0, len(req.Messages)),
		Stream:   fn != nil,
	}
	for _, m := range req.Messages {
		om := ollamaMessage{Role: m.Role, Content: m.Content}
		for _, img := range m.Images {
			om.Images = append(om.Images, base64.StdEncoding.EncodeToString(img))
		}
		oReq.Messages = append(oReq.Messages, om)
	}
	if req.Temperature != 0 {
		oReq.Options = &ollamaOptions{Temperature: req.Temperature}
	}
	if req.ResponseFormat != nil {
		// Ollama accepts either the literal "json" or a full JSON schema
		// as the format constraint.
		if len(req.ResponseFormat.JSONSchema) > 0 {
			inner, err := extractValidationSchema(req.ResponseFormat.JSONSchema)
			if err != nil {
				return nil, err
			}
			oReq.Format = inner
		} else {
			oReq.Format = json.RawMessage(`"json"`)
		}
	}

	ctx, cancel := c.callContext(ctx, req.Timeout)
	defer cancel()

	resp, err := c.post(ctx, "/api/chat", oReq)
	if err != nil {
		result.Success = false
		result.ErrorType = "http_error"
		result.ErrorMessage = err.Error()
		result.TotalTime = time.Since(start)
		return result, err
	}
	defer resp.Body.Close()

	var content strings.Builder
	var last ollamaChatResponse

	if fn != nil {
		// Streaming responses arrive as newline-delimited JSON objects whose
		// message.content fields concatenate to the full reply.
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				result.Success = false
				result.ErrorType = "decode_error"
				result.ErrorMessage = err.Error()
				result.TotalTime = time.Since(start)
				return result, fmt.Errorf("failed to decode stream chunk: %w", err)
			}
			if chunk.Message.Content != "" {
				content.WriteString(chunk.Message.Content)
				if err := fn(chunk.Message.Content); err != nil {
					result.Success = false
					result.ErrorType = "stream_aborted"
					result.ErrorMessage = err.Error()
					result.TotalTime = time.Since(start)
					return result, err
				}
			}
			if chunk.Done {
				last = chunk
			}
		}
		if err := scanner.Err(); err != nil {
			result.Success = false
			result.ErrorType = "stream_error"
			result.ErrorMessage = err.Error()
			result.TotalTime = time.Since(start)
			return result, fmt.Errorf("stream read failed: %w", err)
		}
	} else {
		if err := json.NewDecoder(resp.Body).Decode(&last); err != nil {
			result.Success = false
			result.ErrorType = "decode_error"
			result.ErrorMessage = err.Error()
			result.TotalTime = time.Since(start)
			return result, fmt.Errorf("failed to decode response: %w", err)
		}
		content.WriteString(last.Message.Content)
	}

	result.Success = true
	result.Content = content.String()
	if last.Model != "" {
		result.ModelUsed = last.Model
	}
	result.PromptTokens = last.PromptEvalCount
	result.CompletionTokens = last.EvalCount
	result.TotalTokens = last.PromptEvalCount + last.EvalCount
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	// Parse JSON if structured output was requested
	if req.ResponseFormat != nil && result.Content != "" {
		parsed, err := parseStructuredJSON(result.Content)
		if err != nil {
			result.Success = false
			result.ErrorType = "json_parse"
			result.ErrorMessage = fmt.Sprintf("failed to parse JSON response: %v", err)
		} else {
			result.ParsedJSON = parsed
		}
	}

	return result, nil
}

// Generate sends a bare prompt to /api/generate and returns the response text.
func (c *OllamaClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.defaultModel
	}

	ctx, cancel := c.callContext(ctx, 0)
	defer cancel()

	resp, err := c.post(ctx, "/api/generate", ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Response, nil
}

// callContext derives the per-call deadline. A request-level timeout wins
// over the client default.
func (c *OllamaClient) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *OllamaClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return resp, nil
}

// Verify interface
var _ LLMClient = (*OllamaClient)(nil)
