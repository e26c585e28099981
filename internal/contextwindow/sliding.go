package contextwindow

import (
	"context"
	"sort"
)

// SlidingWindow always keeps round 1 and the most recent rounds, then
// greedily backfills remaining messages in reverse chronological order while
// the token/message budget holds. Grounded on the teacher's
// internal/agent/context/packer.go reverse-fill-then-flip algorithm.
type SlidingWindow struct {
	// PreserveFirstRound always includes round 1 when true (default true).
	PreserveFirstRound bool
	// PreserveLatestRound always includes the two most recent rounds when true
	// (default true).
	PreserveLatestRound bool
}

// NewSlidingWindow returns a SlidingWindow with both preserve flags on, the
// spec's documented default.
func NewSlidingWindow() *SlidingWindow {
	return &SlidingWindow{PreserveFirstRound: true, PreserveLatestRound: true}
}

func (w *SlidingWindow) Project(_ context.Context, transcript []DeliberationMessage, _ string, budget Budget) (*ContextWindow, error) {
	if len(transcript) == 0 {
		return &ContextWindow{Metadata: map[string]int{}}, nil
	}

	currentRound := 0
	for _, m := range transcript {
		if m.Round > currentRound {
			currentRound = m.Round
		}
	}

	type key struct {
		agentID   string
		round     int
		timestamp int64
	}
	included := map[key]bool{}
	var selected []DeliberationMessage

	include := func(m DeliberationMessage) {
		k := key{m.AgentID, m.Round, m.Timestamp.UnixNano()}
		if included[k] {
			return
		}
		included[k] = true
		selected = append(selected, m)
	}

	if w.PreserveFirstRound || w.PreserveLatestRound {
		for _, m := range transcript {
			if w.PreserveFirstRound && m.Round == 1 {
				include(m)
			}
			if w.PreserveLatestRound && (m.Round == currentRound || m.Round == currentRound-1) {
				include(m)
			}
		}
	}

	tokensUsed := estimateTotalTokens(selected)

	// Greedily add remaining messages in reverse chronological order while
	// the budget holds.
	for i := len(transcript) - 1; i >= 0; i-- {
		m := transcript[i]
		k := key{m.AgentID, m.Round, m.Timestamp.UnixNano()}
		if included[k] {
			continue
		}
		msgTokens := estimateMessageTokens(m)
		if !budget.tokensOK(tokensUsed+msgTokens) || !budget.messagesOK(len(selected)+1) {
			break
		}
		include(m)
		tokensUsed += msgTokens
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Round != selected[j].Round {
			return selected[i].Round < selected[j].Round
		}
		return selected[i].Timestamp.Before(selected[j].Timestamp)
	})

	return &ContextWindow{
		Messages:        selected,
		EstimatedTokens: estimateTotalTokens(selected),
		OriginalCount:   len(transcript),
		RetainedCount:   len(selected),
		Metadata: map[string]int{
			"dropped":          len(transcript) - len(selected),
			"rounds_preserved": currentRound,
		},
	}, nil
}
