package agentcore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/haasonsaas/conclave/internal/llm"
)

// MaxToolIterations bounds Agent.Process's tool-call loop.
const MaxToolIterations = 10

// Agent wraps one LLM capability with a personality descriptor, tool set,
// and the three operations used by both the workflow and deliberation
// executors. An Agent is immutable once built and safe for concurrent use
// by multiple executions; it never mutates its Provider.
type Agent struct {
	// ID is a stable identifier referenced by voting tallies and transcript
	// position histories.
	ID string
	// DisplayName is shown in transcripts and progress events.
	DisplayName string
	Personality Personality
	Provider    llm.Provider
	Tools       []*ToolDefinition
	// DefaultOptions seeds every completion; Personality-derived fields
	// (temperature, system prompt) are layered on top per call.
	DefaultOptions llm.Options
}

// NewAgent builds an Agent, compiling every tool's JSON schema eagerly so
// malformed tool definitions fail at registration rather than first use.
func NewAgent(id, displayName string, personality Personality, provider llm.Provider, tools ...*ToolDefinition) (*Agent, error) {
	for _, t := range tools {
		if err := t.Compile(); err != nil {
			return nil, NewEngineError(KindConfiguration, "agent.new", err)
		}
	}
	return &Agent{
		ID:          id,
		DisplayName: displayName,
		Personality: personality,
		Provider:    provider,
		Tools:       tools,
	}, nil
}

// systemPrompt renders the personality's system prompt augmented with
// expertise, traits, and a style-specific closing line.
func (a *Agent) systemPrompt() string {
	var b strings.Builder
	b.WriteString(a.Personality.SystemPrompt)
	if a.Personality.Expertise != "" {
		fmt.Fprintf(&b, "\n\nYour domain of expertise is %s.", a.Personality.Expertise)
	}
	if len(a.Personality.Traits) > 0 {
		b.WriteString("\n\nAdditional traits:")
		for k, v := range a.Personality.Traits {
			fmt.Fprintf(&b, "\n- %s: %s", k, v)
		}
	}
	switch a.Personality.Style {
	case StyleFormal:
		b.WriteString("\n\nRespond formally and precisely.")
	case StyleCasual:
		b.WriteString("\n\nRespond in a casual, conversational tone.")
	case StyleConcise:
		b.WriteString("\n\nBe concise; prefer the shortest correct answer.")
	case StyleDetailed:
		b.WriteString("\n\nBe thorough; explain your reasoning in detail.")
	case StyleSocratic:
		b.WriteString("\n\nWhere useful, surface the key question your answer resolves before stating it.")
	}
	return b.String()
}

// completionOptions derives a per-call options bundle from DefaultOptions,
// the personality's creativity dial, and the rendered system prompt.
func (a *Agent) completionOptions() *llm.Options {
	opts := a.DefaultOptions
	if opts.Temperature == nil {
		temp := a.Personality.Creativity
		opts.Temperature = &temp
	}
	opts.SystemPrompt = a.systemPrompt()
	return &opts
}

// toolSpecs projects the agent's tool set to the provider-facing wire shape.
func (a *Agent) toolSpecs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, len(a.Tools))
	for i, t := range a.Tools {
		specs[i] = llm.ToolSpec{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
	}
	return specs
}

func (a *Agent) toolByName(name string) *ToolDefinition {
	for _, t := range a.Tools {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Process runs the free-form operation: prepend context (if any) to a
// newly built [user(task)], invoke the capability, and — if the agent has
// tools — run a bounded tool loop until the model emits no further tool
// calls or the iteration cap is reached.
//
// Any error from the LLM capability is caught and surfaced as a successful
// AgentResponse whose text begins with "Error: …", so one flaky provider
// never aborts a round for the other agents.
func (a *Agent) Process(ctx context.Context, task string, history []Message) AgentResponse {
	start := time.Now()
	messages := append(append([]Message{}, history...), NewUserMessage(task))

	resp, err := a.runToolLoop(ctx, messages)
	if err != nil {
		return AgentResponse{
			AgentID:   a.ID,
			AgentName: a.DisplayName,
			Text:      "Error: " + err.Error(),
			Elapsed:   time.Since(start),
		}
	}
	return AgentResponse{
		AgentID:   a.ID,
		AgentName: a.DisplayName,
		Text:      resp.Content,
		Elapsed:   time.Since(start),
		Usage:     &TokenUsage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens},
	}
}

// runToolLoop invokes the provider, executing any requested tool calls and
// re-invoking until the model stops requesting tools or MaxToolIterations
// is reached.
func (a *Agent) runToolLoop(ctx context.Context, messages []Message) (*llm.Response, error) {
	opts := a.completionOptions()
	if len(a.Tools) == 0 {
		resp, err := a.Provider.Complete(ctx, messages, opts)
		if err != nil {
			return nil, NewEngineError(classifyProviderError(err), "agent.process:"+a.Provider.Name(), err)
		}
		return resp, nil
	}

	specs := a.toolSpecs()
	for i := 0; i < MaxToolIterations; i++ {
		resp, err := a.Provider.CompleteWithTools(ctx, messages, specs, opts)
		if err != nil {
			return nil, NewEngineError(classifyProviderError(err), "agent.process:"+a.Provider.Name(), err)
		}
		if len(resp.ToolCalls) == 0 {
			return resp, nil
		}
		messages = append(messages, Message{Role: RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			result := a.invokeTool(ctx, call)
			messages = append(messages, NewToolMessage(result, call.ID))
		}
	}
	return &llm.Response{Content: "maximum iterations reached"}, nil
}

// invokeTool executes a tool call, rendering handler or validation failure
// as tool-role text rather than propagating it past the loop.
func (a *Agent) invokeTool(ctx context.Context, call ToolCallRecord) string {
	tool := a.toolByName(call.Name)
	if tool == nil {
		return fmt.Sprintf("error: unknown tool %q", call.Name)
	}
	if err := tool.ValidateArgs(call.Input); err != nil {
		return "error: " + err.Error()
	}
	result, err := tool.Handler(ctx, call.Input)
	if err != nil {
		return "error: " + err.Error()
	}
	if !result.Success {
		return "error: " + result.Error
	}
	return result.Output
}

// ProcessStructured runs Process with a schema hint appended to the task,
// then best-effort extracts a JSON object from the response content between
// the first '{' and the last '}'. Parse failure leaves Structured nil; the
// text response is always returned regardless.
func (a *Agent) ProcessStructured(ctx context.Context, task string, history []Message, schemaHint map[string]string) AgentResponse {
	hinted := task + "\n\nRespond with JSON matching " + renderSchemaHint(schemaHint) + "."
	resp := a.Process(ctx, hinted, history)
	if resp.Structured == nil {
		if parsed, ok := extractJSONObject(resp.Text); ok {
			resp.Structured = parsed
		}
	}
	return resp
}

func renderSchemaHint(fields map[string]string) string {
	var b strings.Builder
	b.WriteString("{")
	first := true
	for name, typ := range fields {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s→%s", name, typ)
	}
	b.WriteString("}")
	return b.String()
}

// extractJSONObject returns the substring from the first '{' to the last
// '}' in s, decoded as a generic JSON value, when both exist and parse.
func extractJSONObject(s string) (any, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, false
	}
	candidate := s[start : end+1]
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, false
	}
	return v, true
}

var voteDigits = regexp.MustCompile(`\d+`)

// Vote builds a numbered-candidate voting prompt from task and others,
// invokes the capability, and extracts the chosen candidate by scanning the
// response for the highest number appearing as a digit sequence that falls
// within [1, len(others)]. Falls through to the first candidate when no
// usable digit is found.
func (a *Agent) Vote(ctx context.Context, task string, others []AgentResponse) AgentResponse {
	start := time.Now()
	prompt := buildVotePrompt(task, others)

	resp, err := a.Provider.Complete(ctx, []Message{NewUserMessage(prompt)}, a.completionOptions())
	if err != nil {
		return AgentResponse{
			AgentID:   a.ID,
			AgentName: a.DisplayName,
			Text:      "Error: " + err.Error(),
			Elapsed:   time.Since(start),
		}
	}

	chosen := extractVoteChoice(resp.Content, len(others))
	chosenID := others[chosen-1].AgentID

	return AgentResponse{
		AgentID:   a.ID,
		AgentName: a.DisplayName,
		Text:      resp.Content,
		Elapsed:   time.Since(start),
		Usage:     &TokenUsage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens},
		Vote:      &VoteResult{ChosenAgentID: chosenID, Reasoning: resp.Content},
	}
}

func buildVotePrompt(task string, others []AgentResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nCandidate responses:\n", task)
	for i, o := range others {
		fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, o.AgentName, o.Text)
	}
	b.WriteString("\nWhich candidate number best answers the task? State the number and your reasoning.")
	return b.String()
}

// extractVoteChoice scans content for digit sequences, returning the
// highest one that falls within [1, n]. Falls back to 1 if none qualify.
func extractVoteChoice(content string, n int) int {
	best := 0
	for _, m := range voteDigits.FindAllString(content, -1) {
		v, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if v >= 1 && v <= n && v > best {
			best = v
		}
	}
	if best == 0 {
		return 1
	}
	return best
}
