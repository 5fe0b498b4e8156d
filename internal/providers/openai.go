package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const OpenAIName = "openai"

// OpenAIConfig holds configuration for an OpenAI-compatible chat client.
// With BaseURL pointed at an OpenAI-compatible endpoint (e.g. Groq) this
// serves as the hosted alternative to the local Ollama backend.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string // Optional: OpenAI-compatible endpoint
	DefaultModel string
	RateLimit    float64 // Requests per second
	Timeout      time.Duration
}

// OpenAIClient implements LLMClient using the official OpenAI SDK.
type OpenAIClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	rateLimit    float64
	limiter      *RateLimiter
	client       openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "qwen-qwq-32b"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1.0
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		rateLimit:    cfg.RateLimit,
		limiter:      NewRateLimiter(int(cfg.RateLimit * 60)),
		client:       openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

func (c *OpenAIClient) buildParams(req *ChatRequest) (openai.ChatCompletionNewParams, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		if len(m.Images) > 0 {
			return params, fmt.Errorf("openai client does not support image messages")
		}
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	if req.Temperature != 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	// Structured output requests rely on local parse/validate/repair; the
	// response_format wire option is not portable across compatible backends.
	return params, nil
}

// Chat sends a single-shot chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	result := c.newResult(req)

	params, err := c.buildParams(req)
	if err != nil {
		return c.fail(result, start, "bad_request", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return c.fail(result, start, "context_cancelled", err)
	}

	ctx, cancel := contextWithTimeout(ctx, req.Timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return c.fail(result, start, "http_error", err)
	}
	if len(resp.Choices) == 0 {
		return c.fail(result, start, "empty_response", fmt.Errorf("no choices in response"))
	}

	result.Success = true
	result.Content = resp.Choices[0].Message.Content
	result.ModelUsed = resp.Model
	result.PromptTokens = int(resp.Usage.PromptTokens)
	result.CompletionTokens = int(resp.Usage.CompletionTokens)
	result.TotalTokens = int(resp.Usage.TotalTokens)
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	if req.ResponseFormat != nil && result.Content != "" {
		parsed, perr := parseStructuredJSON(result.Content)
		if perr != nil {
			result.Success = false
			result.ErrorType = "json_parse"
			result.ErrorMessage = perr.Error()
		} else {
			result.ParsedJSON = parsed
		}
	}

	return result, nil
}

// ChatStream sends a chat request and delivers the reply incrementally.
func (c *OpenAIClient) ChatStream(ctx context.Context, req *ChatRequest, fn StreamFunc) (*ChatResult, error) {
	if fn == nil {
		return nil, fmt.Errorf("stream callback must not be nil")
	}

	start := time.Now()
	result := c.newResult(req)

	params, err := c.buildParams(req)
	if err != nil {
		return c.fail(result, start, "bad_request", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return c.fail(result, start, "context_cancelled", err)
	}

	ctx, cancel := contextWithTimeout(ctx, req.Timeout)
	defer cancel()

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := fn(chunk.Choices[0].Delta.Content); err != nil {
				return c.fail(result, start, "stream_aborted", err)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return c.fail(result, start, "stream_error", err)
	}
	if len(acc.Choices) == 0 {
		return c.fail(result, start, "empty_response", fmt.Errorf("no choices in response"))
	}

	result.Success = true
	result.Content = acc.Choices[0].Message.Content
	result.ModelUsed = acc.Model
	result.PromptTokens = int(acc.Usage.PromptTokens)
	result.CompletionTokens = int(acc.Usage.CompletionTokens)
	result.TotalTokens = int(acc.Usage.TotalTokens)
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime
	return result, nil
}

// Generate sends a bare prompt as a single user message.
func (c *OpenAIClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	result, err := c.Chat(ctx, &ChatRequest{
		Model:    model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func (c *OpenAIClient) newResult(req *ChatRequest) *ChatResult {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	return &ChatResult{
		RequestID: requestID,
		Provider:  OpenAIName,
		ModelUsed: model,
		Attempts:  1,
	}
}

func (c *OpenAIClient) fail(result *ChatResult, start time.Time, errType string, err error) (*ChatResult, error) {
	result.Success = false
	result.ErrorType = errType
	result.ErrorMessage = err.Error()
	result.TotalTime = time.Since(start)
	return result, err
}

func contextWithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Verify interface
var _ LLMClient = (*OpenAIClient)(nil)
