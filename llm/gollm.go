package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmClient implements Client on top of a gollm.LLM instance. It flattens
// the conversation into a gollm prompt, forwards tool definitions, and lifts
// tool calls and faults back into the package contract.
type GollmClient struct {
	provider string
	model    string
	llm      gollm.LLM
}

type gollmConfig struct {
	apiKey      string
	maxTokens   int
	temperature float64
	extraOpts   []gollm.ConfigOption
}

// GollmOption configures a GollmClient.
type GollmOption func(*gollmConfig)

// WithAPIKey sets the provider API key. When empty, gollm reads it from the
// provider's conventional environment variable.
func WithAPIKey(key string) GollmOption {
	return func(c *gollmConfig) { c.apiKey = key }
}

// WithMaxTokens sets the default completion token cap.
func WithMaxTokens(n int) GollmOption {
	return func(c *gollmConfig) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GollmOption {
	return func(c *gollmConfig) { c.temperature = t }
}

// WithGollmOptions appends raw gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmOption {
	return func(c *gollmConfig) { c.extraOpts = append(c.extraOpts, opts...) }
}

// NewGollmClient creates a client for the given provider ("openai",
// "anthropic", ...) and model.
func NewGollmClient(provider, model string, opts ...GollmOption) (*GollmClient, error) {
	cfg := &gollmConfig{
		maxTokens:   4096,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // retry policy is applied via WithRetry
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(cfg.apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	inner, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gollm LLM for provider %s: %w", provider, err)
	}

	return &GollmClient{provider: provider, model: model, llm: inner}, nil
}

// NewGollmClientFromLLM wraps an existing gollm.LLM instance.
func NewGollmClientFromLLM(provider, model string, inner gollm.LLM) *GollmClient {
	return &GollmClient{provider: provider, model: model, llm: inner}
}

// Provider returns the provider identifier.
func (c *GollmClient) Provider() string { return c.provider }

// Complete sends a blocking request and returns the full response.
func (c *GollmClient) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := c.buildPrompt(req)

	if req.Model != "" && req.Model != c.model {
		c.llm.SetOption("model", req.Model)
	}
	if req.Temperature != nil {
		c.llm.SetOption("temperature", *req.Temperature)
	}
	if req.MaxTokens != nil {
		c.llm.SetOption("max_tokens", *req.MaxTokens)
	}

	text, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, c.translateError(err)
	}

	return c.buildResponse(req, text), nil
}

// buildPrompt flattens the message history into a gollm prompt. System
// messages become the (cacheable) system prompt; assistant and tool turns are
// replayed as annotated context lines.
func (c *GollmClient) buildPrompt(req Request) *gollm.Prompt {
	var system strings.Builder
	var parts []string

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			system.WriteString(msg.Text)
			system.WriteString("\n")
		case RoleUser:
			parts = append(parts, msg.Text)
		case RoleAssistant:
			if msg.Text != "" {
				parts = append(parts, "[Assistant]: "+msg.Text)
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, fmt.Sprintf("[Assistant called %s]: %s", tc.Name, string(tc.Arguments)))
			}
		case RoleTool:
			prefix := "[Tool Result]"
			if msg.IsError {
				prefix = "[Tool Error]"
			}
			parts = append(parts, prefix+": "+msg.Text)
		}
	}

	promptText := strings.Join(parts, "\n")
	if promptText == "" {
		promptText = "Hello"
	}

	promptOpts := []gollm.PromptOption{}
	if system.Len() > 0 {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(strings.TrimSpace(system.String()), gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens != nil {
		promptOpts = append(promptOpts, gollm.WithMaxLength(*req.MaxTokens))
	}

	if len(req.Tools) > 0 {
		tools := make([]gollm.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, gollm.Tool{
				Type: "function",
				Function: gollm.Function{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		promptOpts = append(promptOpts, gollm.WithTools(tools))
		promptOpts = append(promptOpts, gollm.WithToolChoice("auto"))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

func (c *GollmClient) buildResponse(req Request, text string) *Response {
	model := req.Model
	if model == "" {
		model = c.model
	}

	calls := ParseToolCalls(text)
	cleaned := stripToolCallJSON(text, calls)

	stopReason := "stop"
	if len(calls) > 0 {
		stopReason = "tool_calls"
	}

	inputTokens := estimateTokens(req)
	outputTokens := len(text) / 4

	return &Response{
		ID:         "resp_" + uuid.New().String()[:8],
		Model:      model,
		Text:       cleaned,
		ToolCalls:  calls,
		StopReason: stopReason,
		Usage: Usage{
			// gollm does not expose provider usage; estimate from length.
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
		},
	}
}

// ParseToolCalls extracts tool calls that gollm providers return embedded as
// JSON in the response text. Calls without an ID get a synthesized one.
func ParseToolCalls(text string) []ToolCall {
	start := strings.Index(text, `{"tool_calls"`)
	if start == -1 {
		start = strings.Index(text, `[{"name"`)
	}
	if start == -1 {
		return nil
	}

	var rawCalls []struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(text[start:]), &rawCalls); err != nil {
		return nil
	}

	var calls []ToolCall
	for _, rc := range rawCalls {
		id := rc.ID
		if id == "" {
			id = "call_" + uuid.New().String()[:8]
		}
		calls = append(calls, ToolCall{ID: id, Name: rc.Name, Arguments: rc.Arguments})
	}
	return calls
}

func stripToolCallJSON(text string, calls []ToolCall) string {
	if len(calls) == 0 {
		return text
	}
	result := text
	for _, marker := range []string{`{"tool_calls"`, `[{"name"`} {
		if idx := strings.Index(result, marker); idx != -1 {
			result = strings.TrimSpace(result[:idx])
		}
	}
	return result
}

// translateError classifies a gollm error into the ModelError taxonomy.
func (c *GollmClient) translateError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)

	me := &ModelError{Provider: c.provider, Message: msg, Cause: err}
	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		me.Kind, me.StatusCode = ErrAuth, 401
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		me.Kind, me.StatusCode, me.Retryable = ErrRateLimit, 429, true
	case strings.Contains(lower, "context length") || strings.Contains(lower, "too many tokens"):
		me.Kind, me.StatusCode = ErrContextLength, 413
	case strings.Contains(lower, "500") || strings.Contains(lower, "internal server"):
		me.Kind, me.StatusCode, me.Retryable = ErrServer, 500, true
	case strings.Contains(lower, "timeout"):
		me.Kind = ErrTimeout
	default:
		me.Kind, me.Retryable = ErrProvider, true
	}
	return me
}

func estimateTokens(req Request) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Text) / 4
	}
	if total == 0 {
		total = 10
	}
	return total
}
