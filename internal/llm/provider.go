// Package llm defines the external LLM capability contract (§6): an opaque
// Complete/CompleteWithTools/Stream surface over role-tagged messages. Vendor
// adapters are concrete implementations; the engine depends only on Provider.
package llm

import (
	"context"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

// ToolSpec is the wire shape of a tool definition passed to a provider,
// stripped of its handler (providers never execute tools themselves).
type ToolSpec struct {
	Name        string
	Description string
	Parameters  []byte // JSON schema
}

// Options are completion parameters recognized by every adapter; an omitted
// field means "use the provider default."
type Options struct {
	Model            string
	Temperature      *float64
	MaxTokens        int
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	StopSequences    []string
	SystemPrompt     string
	// ResponseFormat hints at structured decoding (e.g. "json"); providers
	// that don't support it ignore it.
	ResponseFormat string
}

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Response is the synchronous result of Complete/CompleteWithTools. Content
// may be empty with ToolCalls populated when the model requests tool use.
type Response struct {
	Content      string
	ToolCalls    []agentcore.ToolCallRecord
	Usage        Usage
	FinishReason string
	ModelID      string
}

// StreamDelta is one incremental unit from Stream: either a text delta or,
// on the final delta, the finish reason and usage.
type StreamDelta struct {
	Text         string
	Done         bool
	FinishReason string
	Usage        Usage
	Err          error
}

// Provider is the one concrete-implementation-per-vendor capability contract.
type Provider interface {
	// Name returns the stable provider identifier (e.g. "anthropic").
	Name() string
	// Complete performs a single non-streaming completion.
	Complete(ctx context.Context, messages []agentcore.Message, opts *Options) (*Response, error)
	// CompleteWithTools is Complete with tool-calling enabled.
	CompleteWithTools(ctx context.Context, messages []agentcore.Message, tools []ToolSpec, opts *Options) (*Response, error)
	// Stream returns a lazy finite sequence of content deltas.
	Stream(ctx context.Context, messages []agentcore.Message, opts *Options) (<-chan StreamDelta, error)
}
