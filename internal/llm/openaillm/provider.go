// Package openaillm adapts go-openai's chat-completion streaming API to the
// llm.Provider contract, collecting streamed chunks into one synchronous
// llm.Response per call.
package openaillm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/llm"
	"github.com/haasonsaas/conclave/internal/retry"
)

const defaultModel = "gpt-4o"

// Config configures Provider construction.
type Config struct {
	APIKey       string
	MaxRetries   int
	RetryDelay   time.Duration
	DefaultModel string
}

// Provider implements llm.Provider against OpenAI's chat completions API.
type Provider struct {
	client       *openai.Client
	maxRetries   int
	retryDelay   time.Duration
	defaultModel string
}

// New builds a Provider.
func New(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, agentcore.NewEngineError(agentcore.KindConfiguration, "openaillm.new", errors.New("api key is required"))
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
	return &Provider{
		client:       openai.NewClient(config.APIKey),
		maxRetries:   config.MaxRetries,
		retryDelay:   config.RetryDelay,
		defaultModel: config.DefaultModel,
	}, nil
}

// Name returns the stable provider identifier.
func (p *Provider) Name() string { return "openai" }

// Complete performs a single non-streaming completion.
func (p *Provider) Complete(ctx context.Context, messages []agentcore.Message, opts *llm.Options) (*llm.Response, error) {
	return p.complete(ctx, messages, nil, opts)
}

// CompleteWithTools is Complete with tool definitions attached.
func (p *Provider) CompleteWithTools(ctx context.Context, messages []agentcore.Message, tools []llm.ToolSpec, opts *llm.Options) (*llm.Response, error) {
	return p.complete(ctx, messages, tools, opts)
}

// Stream returns a channel of incremental text deltas.
func (p *Provider) Stream(ctx context.Context, messages []agentcore.Message, opts *llm.Options) (<-chan llm.StreamDelta, error) {
	stream, err := p.createStreamWithRetry(ctx, messages, nil, opts)
	if err != nil {
		return nil, err
	}
	deltas := make(chan llm.StreamDelta)
	go func() {
		defer close(deltas)
		drainStream(stream, func(d llm.StreamDelta) { deltas <- d })
	}()
	return deltas, nil
}

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
		}
	})
	if finalErr != nil {
		return nil, finalErr
	}
	resp.ToolCalls = toolCalls
	return &resp, nil
}

func (p *Provider) createStreamWithRetry(ctx context.Context, messages []agentcore.Message, tools []llm.ToolSpec, opts *llm.Options) (*openai.ChatCompletionStream, error) {
	req := p.buildRequest(messages, tools, opts)

	cfg := retry.Config{MaxAttempts: p.maxRetries, InitialDelay: p.retryDelay, MaxDelay: 10 * p.retryDelay, Factor: 2.0}
	stream, result := retry.DoWithValue(ctx, cfg, func() (*openai.ChatCompletionStream, error) {
		s, err := p.client.CreateChatCompletionStream(ctx, req)
		if err != nil && !isRetryableError(err) {
			return nil, retry.Permanent(err)
		}
		return s, err
	})
	if result.Err != nil {
		if retry.IsPermanent(result.Err) {
			return nil, fmt.Errorf("openaillm: non-retryable error: %w", errors.Unwrap(result.Err))
		}
		return nil, fmt.Errorf("openaillm: max retries exceeded: %w", result.Err)
	}
	return stream, nil
}

func (p *Provider) buildRequest(messages []agentcore.Message, tools []llm.ToolSpec, opts *llm.Options) openai.ChatCompletionRequest {
	model := p.defaultModel
	maxTokens := 0
	var systemPrompt string
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		maxTokens = opts.MaxTokens
		systemPrompt = opts.SystemPrompt
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(messages, systemPrompt),
		Stream:   true,
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}
	if opts != nil && opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if len(tools) > 0 {
		req.Tools = convertTools(tools)
	}
	return req
}

// buildingToolCall accumulates a tool call's fields as they arrive
// fragmented across stream chunks.
type buildingToolCall struct {
	id, name, args string
}

// drainStream reads chat-completion stream chunks, assembling any
// fragmented tool-call arguments and emitting text deltas as they arrive.
func drainStream(stream *openai.ChatCompletionStream, emit func(llm.StreamDelta)) []agentcore.ToolCallRecord {
	defer stream.Close()

	calls := map[int]*buildingToolCall{}
	order := []int{}

	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				emit(llm.StreamDelta{Done: true, FinishReason: "stop"})
				return finalizeToolCalls(calls, order)
			}
			emit(llm.StreamDelta{Err: err})
			return finalizeToolCalls(calls, order)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		if delta.Content != "" {
			emit(llm.StreamDelta{Text: delta.Content})
		}

		for _, tc := range delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			b, ok := calls[index]
			if !ok {
				b = &buildingToolCall{}
				calls[index] = b
				order = append(order, index)
			}
			if tc.ID != "" {
				b.id = tc.ID
			}
			if tc.Function.Name != "" {
				b.name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				b.args += tc.Function.Arguments
			}
		}

		if chunk.Choices[0].FinishReason == "tool_calls" {
			emit(llm.StreamDelta{Done: true, FinishReason: "tool_calls"})
			return finalizeToolCalls(calls, order)
		}
	}
}

func finalizeToolCalls(calls map[int]*buildingToolCall, order []int) []agentcore.ToolCallRecord {
	result := make([]agentcore.ToolCallRecord, 0, len(order))
	for _, idx := range order {
		b := calls[idx]
		if b.id == "" || b.name == "" {
			continue
		}
		result = append(result, agentcore.ToolCallRecord{ID: b.id, Name: b.name, Input: b.args})
	}
	return result
}

func convertMessages(messages []agentcore.Message, systemPrompt string) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}

	for _, msg := range messages {
		switch msg.Role {
		case agentcore.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: msg.Content})
		case agentcore.RoleUser:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content})
		case agentcore.RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content}
			if len(msg.ToolCalls) > 0 {
				oaiMsg.ToolCalls = make([]openai.ToolCall, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					oaiMsg.ToolCalls[i] = openai.ToolCall{
						ID:       tc.ID,
						Type:     openai.ToolTypeFunction,
						Function: openai.FunctionCall{Name: tc.Name, Arguments: tc.Input},
					}
				}
			}
			result = append(result, oaiMsg)
		case agentcore.RoleTool:
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		}
	}
	return result
}

func convertTools(tools []llm.ToolSpec) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		var schema map[string]any
		if err := json.Unmarshal(tool.Parameters, &schema); err != nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  schema,
			},
		}
	}
	return result
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return true
	case strings.Contains(msg, "500"), strings.Contains(msg, "502"), strings.Contains(msg, "503"), strings.Contains(msg, "504"):
		return true
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return true
	}
	return false
}
