package contextwindow

import (
	"context"
	"strings"
	"testing"
)

func TestHierarchicalSegmentsAndNamesPhases(t *testing.T) {
	transcript := buildTranscript(9, 2)
	h := NewHierarchical(nil)

	window, err := h.Project(context.Background(), transcript, "agent-a", Budget{})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if window.Metadata["phase_count"] != 3 {
		t.Fatalf("phase_count = %d, want 3 (rounds 1-9 split into 3-round phases)", window.Metadata["phase_count"])
	}

	var sawCurrent bool
	for _, m := range window.Messages {
		if strings.HasPrefix(m.Content, "[Current Discussion") {
			sawCurrent = true
		}
	}
	// The most recent phase (rounds 7-9) fits verbatim under an unbounded
	// budget, so no "[Current Discussion" summary message is expected here;
	// instead its messages should appear verbatim.
	if sawCurrent {
		t.Fatalf("recent phase should have been included verbatim under an unbounded budget")
	}
	foundRecentVerbatim := false
	for _, m := range window.Messages {
		if m.Round == 9 {
			foundRecentVerbatim = true
		}
	}
	if !foundRecentVerbatim {
		t.Fatalf("expected round 9 messages present verbatim")
	}
}

func TestHierarchicalPacksUnderTightBudget(t *testing.T) {
	transcript := buildTranscript(9, 2)
	h := NewHierarchical(nil)

	window, err := h.Project(context.Background(), transcript, "agent-a", Budget{MaxTokens: 20})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if window.EstimatedTokens > 40 {
		// Generous slack: packing is budget-aware but not exact since phase
		// summaries are all-or-nothing units.
		t.Fatalf("projection far exceeds budget: %d tokens", window.EstimatedTokens)
	}
	if window.Metadata["summarized_count"] == 0 {
		t.Fatalf("expected some phases to be summarized under a tight budget")
	}
}
