package convergence

import (
	"context"
	"strings"
	"unicode"

	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// TokenSimilarity compares each agent's round-r message against its own
// round-(r-1) message by Jaccard similarity over lower-cased tokens longer
// than 2 characters, then averages across every agent that spoke in both
// rounds. Grounded on internal/agent/context/summarize.go's word-overlap
// heuristic for deciding whether a chunk needs re-summarizing, generalized
// from "has this chunk changed" to "have these two rounds converged."
type TokenSimilarity struct{}

func (TokenSimilarity) Score(_ context.Context, state *contextwindow.DeliberationState) (float64, error) {
	if state.CurrentRound < 2 {
		return 0, nil
	}
	current := state.MessagesInRound(state.CurrentRound)
	previous := state.MessagesInRound(state.CurrentRound - 1)
	if len(current) == 0 || len(previous) == 0 {
		return 0, nil
	}

	previousByAgent := map[string]string{}
	for _, m := range previous {
		previousByAgent[m.AgentID] = m.Content
	}

	var total float64
	var n int
	for _, m := range current {
		prevContent, ok := previousByAgent[m.AgentID]
		if !ok {
			continue
		}
		total += jaccard(tokenize(m.Content), tokenize(prevContent))
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}

// tokenize lower-cases s and splits it on any rune that is neither a letter
// nor a digit, keeping only tokens longer than 2 characters. No regexp is
// used, per the spec's "regex-free scanner" contract.
func tokenize(s string) map[string]struct{} {
	lower := strings.ToLower(s)
	tokens := map[string]struct{}{}
	var b strings.Builder
	flush := func() {
		if b.Len() > 2 {
			tokens[b.String()] = struct{}{}
		}
		b.Reset()
	}
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
