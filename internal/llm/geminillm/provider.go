// Package geminillm adapts Google's Gen AI SDK (Gemini) streaming API to the
// llm.Provider contract, collecting streamed response parts into one
// synchronous llm.Response per call.
package geminillm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/llm"
	"github.com/haasonsaas/conclave/internal/retry"
)

const defaultModel = "gemini-2.0-flash"

// Config configures Provider construction.
type Config struct {
	APIKey       string
	MaxRetries   int
	RetryDelay   time.Duration
	DefaultModel string
}

// Provider implements llm.Provider against Google's Gemini API.
type Provider struct {
	client       *genai.Client
	maxRetries   int
	retryDelay   time.Duration
	defaultModel string
}

// New builds a Provider.
func New(ctx context.Context, config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, agentcore.NewEngineError(agentcore.KindConfiguration, "geminillm.new", errors.New("api key is required"))
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

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: config.APIKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("geminillm: failed to create client: %w", err)
	}

	return &Provider{
		client:       client,
		maxRetries:   config.MaxRetries,
		retryDelay:   config.RetryDelay,
		defaultModel: config.DefaultModel,
	}, nil
}

// Name returns the stable provider identifier.
func (p *Provider) Name() string { return "gemini" }

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
	deltas := make(chan llm.StreamDelta)
	go func() {
		defer close(deltas)
		_, err := p.runWithRetry(ctx, messages, nil, opts, func(d llm.StreamDelta) { deltas <- d })
		if err != nil {
			deltas <- llm.StreamDelta{Err: err}
		}
	}()
	return deltas, nil
}

func (p *Provider) complete(ctx context.Context, messages []agentcore.Message, tools []llm.ToolSpec, opts *llm.Options) (*llm.Response, error) {
	var resp llm.Response
	toolCalls, err := p.runWithRetry(ctx, messages, tools, opts, func(d llm.StreamDelta) {
		resp.Content += d.Text
	})
	if err != nil {
		return nil, err
	}
	resp.ToolCalls = toolCalls
	resp.FinishReason = "stop"
	return &resp, nil
}

// runWithRetry invokes GenerateContentStream with exponential backoff,
// emitting each text part through emit and returning assembled tool calls.
func (p *Provider) runWithRetry(ctx context.Context, messages []agentcore.Message, tools []llm.ToolSpec, opts *llm.Options, emit func(llm.StreamDelta)) ([]agentcore.ToolCallRecord, error) {
	model := p.defaultModel
	if opts != nil && opts.Model != "" {
		model = opts.Model
	}

	contents, err := convertMessages(messages)
	if err != nil {
		return nil, p.wrapError(err, model)
	}
	config := buildConfig(opts, tools)

	cfg := retry.Config{
		MaxAttempts:  p.maxRetries + 1,
		InitialDelay: p.retryDelay,
		MaxDelay:     p.retryDelay * time.Duration(math.Pow(2, float64(p.maxRetries))),
		Factor:       2.0,
	}
	attempt := 0
	toolCalls, result := retry.DoWithValue(ctx, cfg, func() ([]agentcore.ToolCallRecord, error) {
		defer func() { attempt++ }()
		var calls []agentcore.ToolCallRecord
		streamErr := func() error {
			iterSeq := p.client.Models.GenerateContentStream(ctx, model, contents, config)
			for chunk, err := range iterSeq {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if err != nil {
					return err
				}
				if chunk == nil {
					continue
				}
				for _, candidate := range chunk.Candidates {
					if candidate == nil || candidate.Content == nil {
						continue
					}
					for _, part := range candidate.Content.Parts {
						if part == nil {
							continue
						}
						if part.Text != "" {
							emit(llm.StreamDelta{Text: part.Text})
						}
						if part.FunctionCall != nil {
							argsJSON, jsonErr := json.Marshal(part.FunctionCall.Args)
							if jsonErr != nil {
								argsJSON = []byte("{}")
							}
							calls = append(calls, agentcore.ToolCallRecord{
								ID:    generateToolCallID(part.FunctionCall.Name, attempt, len(calls)),
								Name:  part.FunctionCall.Name,
								Input: string(argsJSON),
							})
						}
					}
				}
			}
			return nil
		}()
		if streamErr == nil {
			return calls, nil
		}
		wrapped := p.wrapError(streamErr, model)
		if !isRetryableError(wrapped) {
			return nil, retry.Permanent(wrapped)
		}
		return nil, wrapped
	})
	if result.Err != nil {
		if retry.IsPermanent(result.Err) {
			return nil, errors.Unwrap(result.Err)
		}
		return nil, fmt.Errorf("geminillm: max retries exceeded: %w", result.Err)
	}
	emit(llm.StreamDelta{Done: true, FinishReason: "stop"})
	return toolCalls, nil
}

func buildConfig(opts *llm.Options, tools []llm.ToolSpec) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if opts != nil && opts.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.SystemPrompt}}}
	}
	if opts != nil && opts.MaxTokens > 0 {
		maxTokens := opts.MaxTokens
		if maxTokens > math.MaxInt32 {
			maxTokens = math.MaxInt32
		}
		config.MaxOutputTokens = int32(maxTokens)
	}
	if len(tools) > 0 {
		config.Tools = convertTools(tools)
	}
	return config
}

func convertMessages(messages []agentcore.Message) ([]*genai.Content, error) {
	var result []*genai.Content
	for _, msg := range messages {
		if msg.Role == agentcore.RoleSystem {
			continue
		}

		content := &genai.Content{}
		switch msg.Role {
		case agentcore.RoleAssistant:
			content.Role = genai.RoleModel
		default:
			content.Role = genai.RoleUser
		}

		if msg.Content != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
		}
		for _, call := range msg.ToolCalls {
			var args map[string]any
			if call.Input != "" {
				if err := json.Unmarshal([]byte(call.Input), &args); err != nil {
					args = make(map[string]any)
				}
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: call.Name, Args: args},
			})
		}
		if msg.Role == agentcore.RoleTool {
			var response map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &response); err != nil {
				response = map[string]any{"result": msg.Content}
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{Name: toolNameFromID(msg.ToolCallID, messages), Response: response},
			})
		}

		if len(content.Parts) > 0 {
			result = append(result, content)
		}
	}
	return result, nil
}

func toolNameFromID(toolCallID string, messages []agentcore.Message) string {
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls {
			if tc.ID == toolCallID {
				return tc.Name
			}
		}
	}
	return ""
}

func generateToolCallID(name string, attempt, ordinal int) string {
	return fmt.Sprintf("call_%s_%d_%d", name, attempt, ordinal)
}

// convertTools and toGeminiSchema port the teacher's toolconv.ToGeminiTools
// JSON-schema-to-genai.Schema walk, adapted to the llm.ToolSpec wire shape.
func convertTools(tools []llm.ToolSpec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		var schemaMap map[string]any
		if err := json.Unmarshal(tool.Parameters, &schemaMap); err != nil {
			continue
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGeminiSchema(schemaMap),
		})
	}
	if len(declarations) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func toGeminiSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}
	schema := &genai.Schema{}
	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = toGeminiSchema(propMap)
			}
		}
	}
	if required, ok := schemaMap["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = toGeminiSchema(items)
	}
	return schema
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"), strings.Contains(msg, "resource_exhausted"):
		return true
	case strings.Contains(msg, "500"), strings.Contains(msg, "502"), strings.Contains(msg, "503"), strings.Contains(msg, "504"):
		return true
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return true
	}
	return false
}

func (p *Provider) wrapError(err error, model string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("geminillm: model=%s: %w", model, err)
}
