package voting

import (
	"context"
	"testing"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

func TestMajorityE1ThreeResponses(t *testing.T) {
	responses := []agentcore.AgentResponse{
		{AgentID: "a1", Text: "yes"},
		{AgentID: "a2", Text: "yes"},
		{AgentID: "a3", Text: "no"},
	}

	result, err := Majority{}.Vote(context.Background(), "task", responses, DefaultContext())
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if result.WinningText != "yes" {
		t.Fatalf("winning text = %q, want %q", result.WinningText, "yes")
	}
	if result.WinningAgentID != "a1" {
		t.Fatalf("winning agent = %q, want %q", result.WinningAgentID, "a1")
	}
	if got, want := result.Consensus, 2.0/3.0; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("consensus = %v, want ~%v", got, want)
	}
	if len(result.Tally) != 2 {
		t.Fatalf("tally has %d keys, want 2", len(result.Tally))
	}
}

func TestMajorityEmptyResponses(t *testing.T) {
	result, err := Majority{}.Vote(context.Background(), "task", nil, DefaultContext())
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if result.Consensus != 0 {
		t.Fatalf("consensus = %v, want 0", result.Consensus)
	}
	if result.WinningText != "" {
		t.Fatalf("winning text = %q, want empty", result.WinningText)
	}
}

func TestMajorityConsensusTimesNEqualsWinningBucketCount(t *testing.T) {
	responses := []agentcore.AgentResponse{
		{AgentID: "a1", Text: "x"},
		{AgentID: "a2", Text: "x"},
		{AgentID: "a3", Text: "y"},
		{AgentID: "a4", Text: "y"},
		{AgentID: "a5", Text: "y"},
	}
	result, err := Majority{}.Vote(context.Background(), "task", responses, DefaultContext())
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	got := int(result.Consensus*float64(len(responses)) + 0.5)
	if got != 3 {
		t.Fatalf("consensus*N = %d, want 3", got)
	}
}
