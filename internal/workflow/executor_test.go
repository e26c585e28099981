package workflow

import (
	"context"
	"testing"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/llm"
	"github.com/haasonsaas/conclave/internal/voting"
)

type constantProvider struct{ content string }

func (p *constantProvider) Name() string { return "constant" }

func (p *constantProvider) Complete(context.Context, []agentcore.Message, *llm.Options) (*llm.Response, error) {
	return &llm.Response{Content: p.content}, nil
}

func (p *constantProvider) CompleteWithTools(ctx context.Context, messages []agentcore.Message, _ []llm.ToolSpec, opts *llm.Options) (*llm.Response, error) {
	return p.Complete(ctx, messages, opts)
}

func (p *constantProvider) Stream(context.Context, []agentcore.Message, *llm.Options) (<-chan llm.StreamDelta, error) {
	ch := make(chan llm.StreamDelta, 1)
	ch <- llm.StreamDelta{Text: p.content, Done: true}
	close(ch)
	return ch, nil
}

func newTestAgent(t *testing.T, id, content string) *agentcore.Agent {
	t.Helper()
	agent, err := agentcore.NewAgent(id, id, agentcore.Personality{SystemPrompt: "test"}, &constantProvider{content: content})
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	return agent
}

func TestExecuteFanOutAndMajorityVote(t *testing.T) {
	a1 := newTestAgent(t, "a1", "ok")
	a2 := newTestAgent(t, "a2", "ok")
	a3 := newTestAgent(t, "a3", "different")
	executor := NewExecutor(a1, a2, a3)

	var events []Stage
	opts := &Options{
		EnableParallelExecution: true,
		VotingStrategy:          voting.Majority{},
		VotingContext:           voting.DefaultContext(),
		OnProgress:              func(e ProgressEvent) { events = append(events, e.Stage) },
	}

	result, err := executor.Execute(context.Background(), "do the thing", opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if len(result.AgentResponses) != 3 {
		t.Fatalf("expected 3 agent responses, got %d", len(result.AgentResponses))
	}
	if result.Value != "ok" {
		t.Fatalf("expected majority winner %q, got %v", "ok", result.Value)
	}
	if events[0] != StageInitializing || events[len(events)-1] != StageCompleted {
		t.Fatalf("expected progress to start with Initializing and end with Completed, got %v", events)
	}
}

func TestExecuteSequentialPreservesRegistrationOrder(t *testing.T) {
	var invoked []string
	a1 := newTestAgent(t, "a1", "first")
	a2 := newTestAgent(t, "a2", "second")
	executor := NewExecutor(a1, a2)

	opts := &Options{
		VotingStrategy: voting.Majority{},
		VotingContext:  voting.DefaultContext(),
		OnProgress: func(e ProgressEvent) {
			if e.Stage == StageAgentProcessing && e.CurrentAgentID != "" {
				if len(invoked) == 0 || invoked[len(invoked)-1] != e.CurrentAgentID {
					invoked = append(invoked, e.CurrentAgentID)
				}
			}
		},
	}
	_, err := executor.Execute(context.Background(), "task", opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(invoked) != 2 || invoked[0] != "a1" || invoked[1] != "a2" {
		t.Fatalf("expected sequential invocation in registration order, got %v", invoked)
	}
}

func TestExecuteZeroResponsesIsFailure(t *testing.T) {
	executor := NewExecutor()
	opts := &Options{VotingStrategy: voting.Majority{}, VotingContext: voting.DefaultContext()}
	result, err := executor.Execute(context.Background(), "task", opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success || result.Error != "No agent responses received" {
		t.Fatalf("expected the zero-responses failure, got %+v", result)
	}
}

func TestExecuteCancellationSurfacesAsCancelledFailure(t *testing.T) {
	a1 := newTestAgent(t, "a1", "ok")
	executor := NewExecutor(a1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := &Options{
		EnableParallelExecution: true,
		VotingStrategy:          voting.Majority{},
		VotingContext:           voting.DefaultContext(),
	}
	result, err := executor.Execute(ctx, "task", opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success || result.Error != "Workflow was cancelled" {
		t.Fatalf("expected a cancelled failure, got %+v", result)
	}
}
