package contextwindow

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/conclave/internal/llm"
)

// phaseSegment is one named span of roundsPerPhase rounds.
type phaseSegment struct {
	name     string
	messages []DeliberationMessage
	summary  string
}

// Hierarchical segments the transcript into named phases, LLM-summarizes
// each, and (when more than one phase exists) summarizes the concatenation
// of phase summaries into a global overview. Grounded on
// internal/compaction.go's SplitMessagesByTokenShare/ChunkMessagesByMaxTokens
// balanced-chunking helpers, generalized from token-balanced chunks to
// round-balanced phases.
type Hierarchical struct {
	Provider llm.Provider
	// RoundsPerPhase rounds form one phase (default 3).
	RoundsPerPhase int
	// RecentPhaseAllocation is the budget fraction reserved for the most
	// recent phase's verbatim messages (default 0.5).
	RecentPhaseAllocation float64
}

// NewHierarchical returns a Hierarchical with the spec's documented defaults.
func NewHierarchical(provider llm.Provider) *Hierarchical {
	return &Hierarchical{Provider: provider, RoundsPerPhase: 3, RecentPhaseAllocation: 0.5}
}

func (h *Hierarchical) Project(ctx context.Context, transcript []DeliberationMessage, _ string, budget Budget) (*ContextWindow, error) {
	if len(transcript) == 0 {
		return &ContextWindow{Metadata: map[string]int{}}, nil
	}

	roundsPerPhase := h.RoundsPerPhase
	if roundsPerPhase <= 0 {
		roundsPerPhase = 3
	}
	recentAllocation := h.RecentPhaseAllocation
	if recentAllocation <= 0 {
		recentAllocation = 0.5
	}

	phases := h.segmentPhases(transcript, roundsPerPhase)
	for _, p := range phases {
		p.summary = h.summarizePhase(ctx, p.messages)
	}

	globalSummary := ""
	if len(phases) > 1 {
		var combined strings.Builder
		for _, p := range phases {
			fmt.Fprintf(&combined, "%s: %s\n", p.name, p.summary)
		}
		globalSummary = h.summarizeText(ctx, combined.String())
	}

	var projected []DeliberationMessage
	recentPhase := phases[len(phases)-1]
	olderPhases := phases[:len(phases)-1]

	used := 0
	recentVerbatimTokens := estimateTotalTokens(recentPhase.messages)
	recentBudget := budget.MaxTokens
	if budget.MaxTokens > 0 {
		recentBudget = int(float64(budget.MaxTokens) * recentAllocation)
	}
	summarizedCount := 0
	if budget.MaxTokens <= 0 || recentVerbatimTokens <= recentBudget {
		projected = append(projected, recentPhase.messages...)
		used += recentVerbatimTokens
	} else {
		summaryMsg := systemSummaryMessage(recentPhase.name, recentPhase.summary, recentPhase.messages)
		projected = append(projected, summaryMsg)
		used += EstimateTokens(summaryMsg.Content)
		summarizedCount += len(recentPhase.messages)
	}

	includeGlobal := false
	if globalSummary != "" {
		remaining := budget.MaxTokens - used
		globalBudget := remaining
		if budget.MaxTokens > 0 {
			globalBudget = int(float64(remaining) * 0.3)
		}
		if budget.MaxTokens <= 0 || EstimateTokens(globalSummary) <= globalBudget {
			includeGlobal = true
			used += EstimateTokens(globalSummary)
		}
	}

	if len(olderPhases) > 0 {
		remaining := budget.MaxTokens - used
		share := remaining
		if budget.MaxTokens > 0 {
			share = remaining / len(olderPhases)
		}
		for _, p := range olderPhases {
			if budget.MaxTokens > 0 && EstimateTokens(p.summary) > share {
				continue
			}
			msg := systemSummaryMessage(p.name, p.summary, p.messages)
			projected = append(projected, msg)
			used += EstimateTokens(msg.Content)
			summarizedCount += len(p.messages)
		}
	}

	summary := globalSummary
	if !includeGlobal {
		summary = ""
	}

	return &ContextWindow{
		Messages:        projected,
		Summary:         summary,
		EstimatedTokens: used,
		OriginalCount:   len(transcript),
		RetainedCount:   len(projected),
		Metadata: map[string]int{
			"summarized_count": summarizedCount,
			"phase_count":      len(phases),
		},
	}, nil
}

func (h *Hierarchical) segmentPhases(transcript []DeliberationMessage, roundsPerPhase int) []*phaseSegment {
	currentRound := 0
	for _, m := range transcript {
		if m.Round > currentRound {
			currentRound = m.Round
		}
	}

	groups := map[int][]DeliberationMessage{}
	var buckets []int
	for _, m := range transcript {
		bucket := (m.Round - 1) / roundsPerPhase
		if _, ok := groups[bucket]; !ok {
			buckets = append(buckets, bucket)
		}
		groups[bucket] = append(groups[bucket], m)
	}

	phases := make([]*phaseSegment, len(buckets))
	for i, b := range buckets {
		msgs := groups[b]
		startRound := b*roundsPerPhase + 1
		endRound := startRound + roundsPerPhase - 1
		name := fmt.Sprintf("Phase %d", i+1)
		if i == len(buckets)-1 && endRound >= currentRound {
			name = fmt.Sprintf("Current Discussion (Round %d–%d)", startRound, currentRound)
		} else if i == 0 {
			name = fmt.Sprintf("Initial Positions (Round %d–%d)", startRound, endRound)
		} else {
			name = fmt.Sprintf("Rounds %d–%d", startRound, endRound)
		}
		phases[i] = &phaseSegment{name: name, messages: msgs}
	}
	return phases
}

func (h *Hierarchical) summarizePhase(ctx context.Context, messages []DeliberationMessage) string {
	if h.Provider == nil {
		return fallbackSummary(messages)
	}
	s := &summarizer{provider: h.Provider}
	text, err := s.complete(ctx, "You summarize one phase of a multi-agent deliberation.",
		fmt.Sprintf("Summarize this phase:\n%s", renderMessages(messages)), 0.3, 300)
	if err != nil {
		return fallbackSummary(messages)
	}
	return text
}

func (h *Hierarchical) summarizeText(ctx context.Context, text string) string {
	if h.Provider == nil {
		return "[Overview of " + text + "]"
	}
	s := &summarizer{provider: h.Provider}
	result, err := s.complete(ctx, "You write a brief global overview from per-phase summaries.",
		"Summarize these phase summaries into one global overview:\n"+text, 0.3, 300)
	if err != nil {
		return "[Overview unavailable]"
	}
	return result
}

func systemSummaryMessage(name, summary string, original []DeliberationMessage) DeliberationMessage {
	round := 0
	if len(original) > 0 {
		round = original[0].Round
	}
	return DeliberationMessage{
		AgentID:   "system",
		AgentName: "system",
		Content:   fmt.Sprintf("[%s] %s", name, summary),
		Round:     round,
	}
}
