// Package anthropicllm adapts the Anthropic SDK's streaming Messages API to
// the llm.Provider contract, collecting the vendor's server-sent events into
// one synchronous llm.Response per call.
package anthropicllm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/llm"
	"github.com/haasonsaas/conclave/internal/retry"
)

const (
	defaultMaxTokens = 4096
	defaultModel     = "claude-sonnet-4-20250514"
)

// Config configures Provider construction.
type Config struct {
	APIKey       string
	BaseURL      string
	MaxRetries   int
	RetryDelay   time.Duration
	DefaultModel string
}

// Provider implements llm.Provider against Anthropic's Messages API.
type Provider struct {
	client       anthropic.Client
	maxRetries   int
	retryDelay   time.Duration
	defaultModel string
}

// New builds a Provider, applying Config defaults the way the teacher's
// provider constructors do (non-zero validation plus default backfill).
func New(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, agentcore.NewEngineError(agentcore.KindConfiguration, "anthropicllm.new", errors.New("api key is required"))
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.DefaultModel == "" {
		config.DefaultModel = defaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		client:       anthropic.NewClient(opts...),
		maxRetries:   config.MaxRetries,
		retryDelay:   config.RetryDelay,
		defaultModel: config.DefaultModel,
	}, nil
}

// Name returns the stable provider identifier.
func (p *Provider) Name() string { return "anthropic" }

// Complete performs a single non-streaming completion by draining the
// vendor's streaming API into one Response.
func (p *Provider) Complete(ctx context.Context, messages []agentcore.Message, opts *llm.Options) (*llm.Response, error) {
	return p.complete(ctx, messages, nil, opts)
}

// CompleteWithTools is Complete with tool definitions attached.
func (p *Provider) CompleteWithTools(ctx context.Context, messages []agentcore.Message, tools []llm.ToolSpec, opts *llm.Options) (*llm.Response, error) {
	return p.complete(ctx, messages, tools, opts)
}

// Stream returns a channel of incremental text deltas for the completion.
// Tool calls are not exposed over Stream; use CompleteWithTools for that.
func (p *Provider) Stream(ctx context.Context, messages []agentcore.Message, opts *llm.Options) (<-chan llm.StreamDelta, error) {
	deltas := make(chan llm.StreamDelta)
	stream, err := p.createStreamWithRetry(ctx, messages, nil, opts)
	if err != nil {
		return nil, err
	}
	go func() {
		defer close(deltas)
		drainStream(stream, func(d llm.StreamDelta) { deltas <- d })
	}()
	return deltas, nil
}

// complete retries stream creation with exponential backoff, then drains
// the resulting stream into a single Response, folding any assembled tool
// calls in alongside the accumulated text.
func (p *Provider) complete(ctx context.Context, messages []agentcore.Message, tools []llm.ToolSpec, opts *llm.Options) (*llm.Response, error) {
	stream, err := p.createStreamWithRetry(ctx, messages, tools, opts)
	if err != nil {
		return nil, err
	}

	var resp llm.Response
	var finalErr error
	toolCalls := drainStream(stream, func(d llm.StreamDelta) {
		if d.Err != nil {
			finalErr = d.Err
			return
		}
		resp.Content += d.Text
		if d.Done {
			resp.FinishReason = d.FinishReason
			resp.Usage = d.Usage
		}
	})
	if finalErr != nil {
		return nil, finalErr
	}
	resp.ToolCalls = toolCalls
	resp.ModelID = stream.model
	return &resp, nil
}

func (p *Provider) createStreamWithRetry(ctx context.Context, messages []agentcore.Message, tools []llm.ToolSpec, opts *llm.Options) (*anthropicStream, error) {
	cfg := retry.Config{
		MaxAttempts:  p.maxRetries + 1,
		InitialDelay: p.retryDelay,
		MaxDelay:     p.retryDelay * time.Duration(math.Pow(2, float64(p.maxRetries))),
		Factor:       2.0,
	}
	stream, result := retry.DoWithValue(ctx, cfg, func() (*anthropicStream, error) {
		s, err := p.createStream(ctx, messages, tools, opts)
		if err == nil {
			return s, nil
		}
		wrapped := p.wrapError(err, p.modelOf(opts))
		if !isRetryableError(wrapped) {
			return nil, retry.Permanent(wrapped)
		}
		return nil, wrapped
	})
	if result.Err != nil {
		if retry.IsPermanent(result.Err) {
			return nil, errors.Unwrap(result.Err)
		}
		return nil, fmt.Errorf("anthropicllm: max retries exceeded: %w", result.Err)
	}
	return stream, nil
}

func (p *Provider) modelOf(opts *llm.Options) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return p.defaultModel
}

// anthropicStream wraps the SDK's SSE stream alongside the model that
// produced it, needed to label the assembled Response.
type anthropicStream struct {
	sdk   *ssestream.Stream[anthropic.MessageStreamEventUnion]
	model string
}

func (p *Provider) createStream(ctx context.Context, messages []agentcore.Message, tools []llm.ToolSpec, opts *llm.Options) (*anthropicStream, error) {
	msgParams, err := convertMessages(messages)
	if err != nil {
		return nil, fmt.Errorf("anthropicllm: failed to convert messages: %w", err)
	}

	maxTokens := defaultMaxTokens
	model := p.defaultModel
	var systemPrompt string
	if opts != nil {
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
		if opts.Model != "" {
			model = opts.Model
		}
		systemPrompt = opts.SystemPrompt
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  msgParams,
		MaxTokens: int64(maxTokens),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: systemPrompt}}
	}
	if len(tools) > 0 {
		toolParams, err := convertTools(tools)
		if err != nil {
			return nil, fmt.Errorf("anthropicllm: failed to convert tools: %w", err)
		}
		params.Tools = toolParams
	}

	sdkStream := p.client.Messages.NewStreaming(ctx, params)
	return &anthropicStream{sdk: sdkStream, model: model}, nil
}

// drainStream reads every event off the SDK stream, handing each text delta
// to emit and returning any tool calls assembled along the way. Mirrors the
// teacher's processStream event switch, collapsing the thinking/computer-use
// branches this engine does not use.
func drainStream(stream *anthropicStream, emit func(llm.StreamDelta)) []agentcore.ToolCallRecord {
	var toolCalls []agentcore.ToolCallRecord
	var currentTool *agentcore.ToolCallRecord
	var currentToolInput strings.Builder
	var inputTokens, outputTokens int

	for stream.sdk.Next() {
		event := stream.sdk.Current()
		switch event.Type {
		case "message_start":
			ms := event.AsMessageStart()
			if ms.Message.Usage.InputTokens > 0 {
				inputTokens = int(ms.Message.Usage.InputTokens)
			}
		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			if block.Type == "tool_use" {
				toolUse := block.AsToolUse()
				currentTool = &agentcore.ToolCallRecord{ID: toolUse.ID, Name: toolUse.Name}
				currentToolInput.Reset()
			}
		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					emit(llm.StreamDelta{Text: delta.Text})
				}
			case "input_json_delta":
				if delta.PartialJSON != "" {
					currentToolInput.WriteString(delta.PartialJSON)
				}
			}
		case "content_block_stop":
			if currentTool != nil {
				currentTool.Input = currentToolInput.String()
				toolCalls = append(toolCalls, *currentTool)
				currentTool = nil
			}
		case "message_delta":
			md := event.AsMessageDelta()
			if md.Usage.OutputTokens > 0 {
				outputTokens = int(md.Usage.OutputTokens)
			}
		case "message_stop":
			emit(llm.StreamDelta{
				Done:         true,
				FinishReason: "stop",
				Usage:        llm.Usage{PromptTokens: inputTokens, CompletionTokens: outputTokens},
			})
			return toolCalls
		case "error":
			emit(llm.StreamDelta{Err: fmt.Errorf("anthropicllm: stream error")})
			return toolCalls
		}
	}
	if err := stream.sdk.Err(); err != nil {
		emit(llm.StreamDelta{Err: err})
	}
	return toolCalls
}

func convertMessages(messages []agentcore.Message) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam
	for _, msg := range messages {
		if msg.Role == agentcore.RoleSystem {
			continue
		}

		var content []anthropic.ContentBlockParamUnion
		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}
		if msg.Role == agentcore.RoleTool {
			content = append(content, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		}
		for _, call := range msg.ToolCalls {
			var input map[string]any
			if call.Input != "" {
				if err := json.Unmarshal([]byte(call.Input), &input); err != nil {
					return nil, fmt.Errorf("invalid tool call input: %w", err)
				}
			}
			content = append(content, anthropic.NewToolUseBlock(call.ID, input, call.Name))
		}

		var message anthropic.MessageParam
		if msg.Role == agentcore.RoleAssistant {
			message = anthropic.NewAssistantMessage(content...)
		} else {
			message = anthropic.NewUserMessage(content...)
		}
		result = append(result, message)
	}
	return result, nil
}

func convertTools(tools []llm.ToolSpec) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Parameters, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name)
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description)
		result = append(result, toolParam)
	}
	return result, nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate_limit"), strings.Contains(msg, "429"), strings.Contains(msg, "too many requests"):
		return true
	case strings.Contains(msg, "500"), strings.Contains(msg, "502"), strings.Contains(msg, "503"), strings.Contains(msg, "504"),
		strings.Contains(msg, "internal server error"), strings.Contains(msg, "bad gateway"),
		strings.Contains(msg, "service unavailable"), strings.Contains(msg, "gateway timeout"):
		return true
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return true
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return true
	}
	return false
}

type anthropicErrorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func (p *Provider) wrapError(err error, model string) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		message := "anthropic request failed"
		raw := apiErr.RawJSON()
		if raw != "" {
			var payload anthropicErrorPayload
			if json.Unmarshal([]byte(raw), &payload) == nil && payload.Error.Message != "" {
				message = payload.Error.Message
			}
		}
		return fmt.Errorf("anthropicllm: %s (model=%s, status=%d): %w", message, model, apiErr.StatusCode, err)
	}
	return fmt.Errorf("anthropicllm: %s: %w", model, err)
}
