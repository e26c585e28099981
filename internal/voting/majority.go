package voting

import (
	"context"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

// Majority buckets responses by a normalized key and picks the bucket with
// the largest count; ties resolve to whichever bucket was encountered first.
type Majority struct{}

func (Majority) Name() string { return "majority" }

func (Majority) Vote(_ context.Context, _ string, responses []agentcore.AgentResponse, _ Context) (*Result, error) {
	if len(responses) == 0 {
		return empty("majority"), nil
	}

	order := []string{}
	buckets := map[string]*bucket{}
	for _, r := range responses {
		key := normalizeKey(r.Text)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key}
			buckets[key] = b
			order = append(order, key)
		}
		b.responses = append(b.responses, r)
	}

	winnerKey := order[0]
	for _, key := range order {
		if len(buckets[key].responses) > len(buckets[winnerKey].responses) {
			winnerKey = key
		}
	}
	winner := buckets[winnerKey].responses[0]

	tally := map[string]int{}
	for _, key := range order {
		tally[key] = len(buckets[key].responses)
	}

	return &Result{
		WinningText:       winner.Text,
		WinningStructured: winner.Structured,
		WinningAgentID:    winner.AgentID,
		Strategy:          "majority",
		Tally:             tally,
		Consensus:         float64(len(buckets[winnerKey].responses)) / float64(len(responses)),
	}, nil
}
