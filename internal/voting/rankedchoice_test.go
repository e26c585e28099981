package voting

import (
	"context"
	"testing"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/llm"
)

// stubProvider returns a fixed Complete response, for exercising strategies
// that call an arbiter without depending on a real vendor SDK.
type stubProvider struct {
	content string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(context.Context, []agentcore.Message, *llm.Options) (*llm.Response, error) {
	return &llm.Response{Content: s.content}, nil
}

func (s *stubProvider) CompleteWithTools(ctx context.Context, messages []agentcore.Message, _ []llm.ToolSpec, opts *llm.Options) (*llm.Response, error) {
	return s.Complete(ctx, messages, opts)
}

func (s *stubProvider) Stream(context.Context, []agentcore.Message, *llm.Options) (<-chan llm.StreamDelta, error) {
	ch := make(chan llm.StreamDelta, 1)
	ch <- llm.StreamDelta{Text: s.content, Done: true}
	close(ch)
	return ch, nil
}

func TestRankedChoiceE3ArbiterPermutation(t *testing.T) {
	responses := []agentcore.AgentResponse{
		{AgentID: "a1", AgentName: "A", Text: "A"},
		{AgentID: "a2", AgentName: "B", Text: "B"},
		{AgentID: "a3", AgentName: "C", Text: "C"},
	}
	vctx := DefaultContext()
	vctx.Arbiter = &Arbiter{Provider: &stubProvider{content: "2,1,3"}}

	result, err := RankedChoice{}.Vote(context.Background(), "task", responses, vctx)
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if result.WinningText != "B" {
		t.Fatalf("winner = %q, want %q", result.WinningText, "B")
	}
	if result.Strategy != "ranked_choice" {
		t.Fatalf("strategy tag = %q", result.Strategy)
	}
	if len(result.Tally) == 0 {
		t.Fatalf("tally is empty")
	}
}

func TestRankedChoiceNoArbiterFallsBackToFirst(t *testing.T) {
	responses := []agentcore.AgentResponse{
		{AgentID: "a1", Text: "A"},
		{AgentID: "a2", Text: "B"},
	}
	result, err := RankedChoice{}.Vote(context.Background(), "task", responses, DefaultContext())
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if result.WinningText != "A" {
		t.Fatalf("winner = %q, want %q", result.WinningText, "A")
	}
	if got, want := result.Consensus, 0.5; got != want {
		t.Fatalf("consensus = %v, want %v", got, want)
	}
}

func TestParsePermutationFallsBackToNaturalOrder(t *testing.T) {
	perm := parsePermutation("not a permutation", 3)
	want := []int{1, 2, 3}
	if len(perm) != len(want) {
		t.Fatalf("perm = %v, want %v", perm, want)
	}
	for i := range want {
		if perm[i] != want[i] {
			t.Fatalf("perm = %v, want %v", perm, want)
		}
	}
}

func TestInstantRunoffTerminatesWithinNMinus1Passes(t *testing.T) {
	// A single reversed four-candidate ballot gives candidate 4 every
	// first-choice vote, so it wins in the first pass with no elimination.
	ballot := []int{4, 3, 2, 1}
	winner := instantRunoff([][]int{ballot}, 4)
	if winner != 4 {
		t.Fatalf("winner = %d, want 4", winner)
	}
}
