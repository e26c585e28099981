package agentcore

import (
	"context"
	"errors"
	"testing"

	"github.com/haasonsaas/conclave/internal/llm"
)

type stubProvider struct {
	name      string
	responses []*llm.Response
	err       error
	calls     int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(context.Context, []Message, *llm.Options) (*llm.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *stubProvider) CompleteWithTools(_ context.Context, _ []Message, _ []llm.ToolSpec, _ *llm.Options) (*llm.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *stubProvider) Stream(context.Context, []Message, *llm.Options) (<-chan llm.StreamDelta, error) {
	ch := make(chan llm.StreamDelta)
	close(ch)
	return ch, nil
}

func newTestAgent(t *testing.T, provider llm.Provider, tools ...*ToolDefinition) *Agent {
	t.Helper()
	agent, err := NewAgent("agent-1", "Agent One", NewPersonality("Agent One", "be helpful").Build(), provider, tools...)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	return agent
}

func TestNewAgentCompilesToolSchemasEagerly(t *testing.T) {
	badTool := &ToolDefinition{Name: "broken", Parameters: []byte(`{"type":"nonsense-type"}`)}
	_, err := NewAgent("a", "A", Personality{}, &stubProvider{}, badTool)
	if err == nil {
		t.Fatal("expected NewAgent to fail on a malformed tool schema")
	}
	if !IsEngineError(err) {
		t.Error("expected a classified *EngineError")
	}
}

func TestAgentProcessReturnsContentOnSuccess(t *testing.T) {
	provider := &stubProvider{name: "stub", responses: []*llm.Response{{Content: "42", Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 2}}}}
	agent := newTestAgent(t, provider)

	resp := agent.Process(context.Background(), "what is the answer?", nil)
	if resp.Text != "42" {
		t.Errorf("Text = %q, want 42", resp.Text)
	}
	if resp.AgentID != "agent-1" {
		t.Errorf("AgentID = %q", resp.AgentID)
	}
	if resp.Usage == nil || resp.Usage.PromptTokens != 10 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestAgentProcessSwallowsProviderError(t *testing.T) {
	provider := &stubProvider{name: "stub", err: errors.New("connection reset")}
	agent := newTestAgent(t, provider)

	resp := agent.Process(context.Background(), "task", nil)
	if resp.Text == "" || resp.Text[:6] != "Error:" {
		t.Errorf("expected a swallowed error response, got %q", resp.Text)
	}
}

func TestAgentProcessRunsToolLoopUntilNoMoreCalls(t *testing.T) {
	calledArgs := ""
	tool := &ToolDefinition{
		Name: "lookup",
		Handler: func(ctx context.Context, argsJSON string) (*ToolResult, error) {
			calledArgs = argsJSON
			return &ToolResult{Success: true, Output: "looked up"}, nil
		},
	}
	provider := &stubProvider{
		name: "stub",
		responses: []*llm.Response{
			{Content: "", ToolCalls: []ToolCallRecord{{ID: "call_1", Name: "lookup", Input: `{"q":"x"}`}}},
			{Content: "final answer"},
		},
	}
	agent := newTestAgent(t, provider, tool)

	resp := agent.Process(context.Background(), "task", nil)
	if resp.Text != "final answer" {
		t.Errorf("Text = %q, want final answer", resp.Text)
	}
	if calledArgs != `{"q":"x"}` {
		t.Errorf("tool handler args = %q", calledArgs)
	}
}

func TestAgentProcessUnknownToolReportsError(t *testing.T) {
	provider := &stubProvider{
		name: "stub",
		responses: []*llm.Response{
			{ToolCalls: []ToolCallRecord{{ID: "call_1", Name: "missing"}}},
			{Content: "done"},
		},
	}
	tool := &ToolDefinition{Name: "known", Handler: func(context.Context, string) (*ToolResult, error) { return &ToolResult{Success: true}, nil }}
	agent := newTestAgent(t, provider, tool)

	resp := agent.Process(context.Background(), "task", nil)
	if resp.Text != "done" {
		t.Errorf("Text = %q, want done", resp.Text)
	}
}

func TestAgentProcessStructuredParsesTrailingJSON(t *testing.T) {
	provider := &stubProvider{name: "stub", responses: []*llm.Response{{Content: `here is my answer: {"score": 7}`}}}
	agent := newTestAgent(t, provider)

	resp := agent.ProcessStructured(context.Background(), "rate this", nil, map[string]string{"score": "number"})
	if resp.Structured == nil {
		t.Fatal("expected Structured to be populated")
	}
	m, ok := resp.Structured.(map[string]any)
	if !ok || m["score"] != float64(7) {
		t.Errorf("Structured = %+v", resp.Structured)
	}
}

func TestAgentProcessStructuredLeavesNilOnUnparsableContent(t *testing.T) {
	provider := &stubProvider{name: "stub", responses: []*llm.Response{{Content: "no json here"}}}
	agent := newTestAgent(t, provider)

	resp := agent.ProcessStructured(context.Background(), "rate this", nil, map[string]string{"score": "number"})
	if resp.Structured != nil {
		t.Errorf("expected Structured to stay nil, got %+v", resp.Structured)
	}
	if resp.Text != "no json here" {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestAgentVoteChoosesHighestQualifyingCandidate(t *testing.T) {
	provider := &stubProvider{name: "stub", responses: []*llm.Response{{Content: "I think candidate 2 is best, though 99 is out of range."}}}
	agent := newTestAgent(t, provider)

	others := []AgentResponse{
		{AgentID: "a1", AgentName: "One", Text: "first"},
		{AgentID: "a2", AgentName: "Two", Text: "second"},
	}
	resp := agent.Vote(context.Background(), "task", others)
	if resp.Vote == nil || resp.Vote.ChosenAgentID != "a2" {
		t.Errorf("Vote = %+v, want chosen a2", resp.Vote)
	}
}

func TestAgentVoteFallsBackToFirstCandidateWhenNoDigits(t *testing.T) {
	provider := &stubProvider{name: "stub", responses: []*llm.Response{{Content: "no numbers mentioned"}}}
	agent := newTestAgent(t, provider)

	others := []AgentResponse{{AgentID: "a1"}, {AgentID: "a2"}}
	resp := agent.Vote(context.Background(), "task", others)
	if resp.Vote == nil || resp.Vote.ChosenAgentID != "a1" {
		t.Errorf("Vote = %+v, want fallback to a1", resp.Vote)
	}
}

func TestAgentVoteSwallowsProviderError(t *testing.T) {
	provider := &stubProvider{name: "stub", err: errors.New("boom")}
	agent := newTestAgent(t, provider)

	resp := agent.Vote(context.Background(), "task", []AgentResponse{{AgentID: "a1"}})
	if resp.Vote != nil {
		t.Errorf("expected no Vote on provider error, got %+v", resp.Vote)
	}
	if resp.Text[:6] != "Error:" {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestExtractVoteChoiceFallsBackToOne(t *testing.T) {
	if got := extractVoteChoice("nothing numeric", 3); got != 1 {
		t.Errorf("extractVoteChoice = %d, want 1", got)
	}
}

func TestExtractVoteChoiceIgnoresOutOfRangeDigits(t *testing.T) {
	if got := extractVoteChoice("candidate 42 or maybe 2", 3); got != 2 {
		t.Errorf("extractVoteChoice = %d, want 2", got)
	}
}

func TestExtractJSONObjectRoundTrips(t *testing.T) {
	v, ok := extractJSONObject(`preamble {"a":1,"b":[1,2]} trailing`)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	m, ok := v.(map[string]any)
	if !ok || m["a"] != float64(1) {
		t.Errorf("v = %+v", v)
	}
}

func TestExtractJSONObjectNoBraces(t *testing.T) {
	if _, ok := extractJSONObject("no braces here"); ok {
		t.Error("expected extraction to fail without braces")
	}
}
