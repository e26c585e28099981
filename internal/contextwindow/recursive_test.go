package contextwindow

import (
	"context"
	"strings"
	"testing"
)

func TestRecursiveSummarizationFallbackWithoutProvider(t *testing.T) {
	transcript := buildTranscript(6, 2)
	r := NewRecursiveSummarization(nil)

	window, err := r.Project(context.Background(), transcript, "agent-a", Budget{})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if window.Summary == "" {
		t.Fatalf("expected a synthetic summary for rounds older than the preserved window")
	}
	if !strings.HasPrefix(window.Summary, "[Summary of") {
		t.Fatalf("synthetic summary has unexpected shape: %q", window.Summary)
	}
	// Rounds 5 and 6 are within PreserveRecentRounds=2 of round 6 and kept verbatim.
	for _, m := range window.Messages {
		if m.Round < 5 {
			t.Fatalf("message from round %d should have been summarized away", m.Round)
		}
	}
}

func TestRecursiveSummarizationCompressesUnderTightBudget(t *testing.T) {
	transcript := buildTranscript(10, 2)
	r := NewRecursiveSummarization(nil)

	window, err := r.Project(context.Background(), transcript, "agent-a", Budget{MaxTokens: 5})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(window.Messages) > 2 && window.EstimatedTokens > 5 {
		// Compression stops once <=2 messages remain even if still over budget,
		// per the spec's stated stopping condition.
		t.Fatalf("did not compress toward budget: %d messages, %d tokens", len(window.Messages), window.EstimatedTokens)
	}
}
