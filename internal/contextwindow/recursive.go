package contextwindow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/haasonsaas/conclave/internal/llm"
)

// RecursiveSummarization preserves recent rounds verbatim and summarizes
// older ones incrementally, chunk by chunk, extending the prior chunk's
// summary rather than re-summarizing from scratch. Grounded on
// internal/agent/context/summarize.go's keep-recent-summarize-the-rest shape
// and internal/agent/context/summary.go's summary-metadata bookkeeping.
//
// Each Project call computes its chunk summaries fresh rather than caching
// across calls, so the manager stays immutable and safe for concurrent
// executions per §5 — cross-call caching would mean two concurrent
// deliberations with different round content colliding on the same cache key.
type RecursiveSummarization struct {
	// Provider is the LLM capability used to summarize. Nil falls back to a
	// deterministic synthetic summary.
	Provider llm.Provider
	// PreserveRecentRounds rounds are kept verbatim (default 2).
	PreserveRecentRounds int
	// SummarizationChunkSize is the round-span each incremental summary covers
	// (default 3).
	SummarizationChunkSize int
}

// NewRecursiveSummarization returns a RecursiveSummarization with the spec's
// documented defaults.
func NewRecursiveSummarization(provider llm.Provider) *RecursiveSummarization {
	return &RecursiveSummarization{Provider: provider, PreserveRecentRounds: 2, SummarizationChunkSize: 3}
}

func (r *RecursiveSummarization) Project(ctx context.Context, transcript []DeliberationMessage, _ string, budget Budget) (*ContextWindow, error) {
	if len(transcript) == 0 {
		return &ContextWindow{Metadata: map[string]int{}}, nil
	}

	preserveRecent := r.PreserveRecentRounds
	if preserveRecent <= 0 {
		preserveRecent = 2
	}
	chunkSize := r.SummarizationChunkSize
	if chunkSize <= 0 {
		chunkSize = 3
	}

	currentRound := 0
	for _, m := range transcript {
		if m.Round > currentRound {
			currentRound = m.Round
		}
	}
	cutoff := currentRound - preserveRecent

	var older, recent []DeliberationMessage
	for _, m := range transcript {
		if m.Round <= cutoff {
			older = append(older, m)
		} else {
			recent = append(recent, m)
		}
	}

	summary := ""
	if len(older) > 0 {
		prev := ""
		for _, chunk := range groupByRoundChunks(older, chunkSize) {
			prev = r.summarizeChunk(ctx, prev, chunk)
		}
		summary = prev
	}

	projected := append([]DeliberationMessage{}, recent...)
	estimate := func() int { return EstimateTokens(summary) + estimateTotalTokens(projected) }

	for budget.MaxTokens > 0 && estimate() > budget.MaxTokens && len(projected) > 2 {
		half := (len(projected) + 1) / 2
		if half == 0 {
			break
		}
		compressedText := r.summarizeChunk(ctx, "", projected[:half])
		compressedMsg := DeliberationMessage{
			AgentID:   "system",
			AgentName: "system",
			Content:   "[Compressed context] " + compressedText,
			Round:     projected[0].Round,
		}
		projected = append([]DeliberationMessage{compressedMsg}, projected[half:]...)
	}

	return &ContextWindow{
		Messages:        projected,
		Summary:         summary,
		EstimatedTokens: estimate(),
		OriginalCount:   len(transcript),
		RetainedCount:   len(projected),
		Metadata: map[string]int{
			"summarized_count": len(older),
			"rounds_preserved": currentRound - cutoff,
		},
	}, nil
}

func (r *RecursiveSummarization) summarizeChunk(ctx context.Context, prevSummary string, chunk []DeliberationMessage) string {
	if r.Provider == nil {
		return fallbackSummary(chunk)
	}
	var prompt string
	if prevSummary != "" {
		prompt = fmt.Sprintf("Existing summary:\n%s\n\nExtend it to also cover these additional messages:\n%s", prevSummary, renderMessages(chunk))
	} else {
		prompt = fmt.Sprintf("Summarize the following deliberation messages concisely:\n%s", renderMessages(chunk))
	}
	s := &summarizer{provider: r.Provider}
	text, err := s.complete(ctx, "You summarize multi-agent deliberation transcripts.", prompt, 0.3, 400)
	if err != nil {
		return fallbackSummary(chunk)
	}
	return text
}

func fallbackSummary(chunk []DeliberationMessage) string {
	if len(chunk) == 0 {
		return ""
	}
	minRound, maxRound := chunk[0].Round, chunk[0].Round
	for _, m := range chunk {
		if m.Round < minRound {
			minRound = m.Round
		}
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}
	return fmt.Sprintf("[Summary of %d messages across rounds %d–%d. Participants: %s]",
		len(chunk), minRound, maxRound, strings.Join(participantNames(chunk), ", "))
}

func renderMessages(messages []DeliberationMessage) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "round %d (%s): %s\n", m.Round, m.AgentName, m.Content)
	}
	return b.String()
}

// groupByRoundChunks partitions messages into ascending-round-ordered groups
// spanning chunkSize rounds each.
func groupByRoundChunks(messages []DeliberationMessage, chunkSize int) [][]DeliberationMessage {
	groups := map[int][]DeliberationMessage{}
	var buckets []int
	for _, m := range messages {
		bucket := (m.Round - 1) / chunkSize
		if _, ok := groups[bucket]; !ok {
			buckets = append(buckets, bucket)
		}
		groups[bucket] = append(groups[bucket], m)
	}
	sort.Ints(buckets)
	result := make([][]DeliberationMessage, len(buckets))
	for i, b := range buckets {
		result[i] = groups[b]
	}
	return result
}
