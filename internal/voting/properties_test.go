package voting

import (
	"context"
	"testing"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

func TestAllStrategiesReturnOneWinnerAndBoundedConsensus(t *testing.T) {
	responses := []agentcore.AgentResponse{
		{AgentID: "a1", AgentName: "A", Text: "alpha"},
		{AgentID: "a2", AgentName: "B", Text: "beta"},
		{AgentID: "a3", AgentName: "C", Text: "beta"},
	}
	vctx := DefaultContext()

	for name, strategy := range Strategies() {
		result, err := strategy.Vote(context.Background(), "task", responses, vctx)
		if err != nil {
			t.Fatalf("%s: Vote: %v", name, err)
		}
		if result.WinningText == "" {
			t.Fatalf("%s: winning text is empty", name)
		}
		if result.Consensus < 0 || result.Consensus > 1 {
			t.Fatalf("%s: consensus %v out of [0,1]", name, result.Consensus)
		}
	}
}

func TestConsensusWithoutArbiterFallsBack(t *testing.T) {
	responses := []agentcore.AgentResponse{{AgentID: "a1", Text: "alpha"}, {AgentID: "a2", Text: "beta"}}
	result, err := Consensus{}.Vote(context.Background(), "task", responses, DefaultContext())
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if result.WinningAgentID != "a1" {
		t.Fatalf("winning agent = %q, want a1", result.WinningAgentID)
	}
}

func TestAggregationWithoutArbiterConcatenates(t *testing.T) {
	responses := []agentcore.AgentResponse{
		{AgentID: "a1", AgentName: "Alpha", Text: "one"},
		{AgentID: "a2", AgentName: "Beta", Text: "two"},
	}
	result, err := Aggregation{}.Vote(context.Background(), "task", responses, DefaultContext())
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if result.WinningAgentID != "aggregation" {
		t.Fatalf("winning agent = %q, want aggregation", result.WinningAgentID)
	}
	if result.Consensus != 1.0 {
		t.Fatalf("consensus = %v, want 1.0", result.Consensus)
	}
}

func TestExpertPanelWithoutArbiterUsesHalfDefaultConfidence(t *testing.T) {
	responses := []agentcore.AgentResponse{
		{AgentID: "a1", Text: "alpha"},
		{AgentID: "a2", Text: "beta"},
	}
	vctx := DefaultContext()
	vctx.Weights = map[string]float64{"a1": 1, "a2": 2}

	result, err := ExpertPanel{}.Vote(context.Background(), "task", responses, vctx)
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if result.WinningAgentID != "a2" {
		t.Fatalf("winning agent = %q, want a2 (higher weight, equal default confidence)", result.WinningAgentID)
	}
}
