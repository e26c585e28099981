package voting

import (
	"context"
	"testing"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

func TestWeightedE2PromotesExpert(t *testing.T) {
	responses := []agentcore.AgentResponse{
		{AgentID: "expert", Text: "A"},
		{AgentID: "novice1", Text: "B"},
		{AgentID: "novice2", Text: "B"},
	}
	vctx := DefaultContext()
	vctx.Weights = map[string]float64{"expert": 3, "novice1": 1, "novice2": 1}

	result, err := Weighted{}.Vote(context.Background(), "task", responses, vctx)
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if result.WinningText != "A" {
		t.Fatalf("winning text = %q, want %q", result.WinningText, "A")
	}
}

func TestWeightedUniformMatchesMajority(t *testing.T) {
	responses := []agentcore.AgentResponse{
		{AgentID: "a1", Text: "yes"},
		{AgentID: "a2", Text: "yes"},
		{AgentID: "a3", Text: "no"},
	}
	vctx := DefaultContext()

	majorityResult, err := Majority{}.Vote(context.Background(), "task", responses, vctx)
	if err != nil {
		t.Fatalf("Majority.Vote: %v", err)
	}
	weightedResult, err := Weighted{}.Vote(context.Background(), "task", responses, vctx)
	if err != nil {
		t.Fatalf("Weighted.Vote: %v", err)
	}
	if weightedResult.WinningText != majorityResult.WinningText {
		t.Fatalf("weighted winner %q != majority winner %q", weightedResult.WinningText, majorityResult.WinningText)
	}
}
