package voting

import (
	"context"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

// Weighted buckets responses by the same normalized key as Majority but
// scores each bucket by the sum of weight(agent) × confidence(agent) rather
// than a raw count.
type Weighted struct{}

func (Weighted) Name() string { return "weighted" }

func (Weighted) Vote(_ context.Context, _ string, responses []agentcore.AgentResponse, vctx Context) (*Result, error) {
	if len(responses) == 0 {
		return empty("weighted"), nil
	}

	order := []string{}
	buckets := map[string]*bucket{}
	totalWeight := 0.0
	for _, r := range responses {
		key := normalizeKey(r.Text)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key}
			buckets[key] = b
			order = append(order, key)
		}
		b.responses = append(b.responses, r)
		contribution := vctx.weight(r.AgentID) * r.ConfidenceOrDefault()
		b.score += contribution
		totalWeight += vctx.weight(r.AgentID)
	}

	winnerKey := order[0]
	for _, key := range order {
		if buckets[key].score > buckets[winnerKey].score {
			winnerKey = key
		}
	}
	winner := buckets[winnerKey].responses[0]

	tally := map[string]int{}
	for _, key := range order {
		tally[key] = len(buckets[key].responses)
	}

	consensus := 0.0
	if totalWeight > 0 {
		consensus = buckets[winnerKey].score / totalWeight
	}

	return &Result{
		WinningText:       winner.Text,
		WinningStructured: winner.Structured,
		WinningAgentID:    winner.AgentID,
		Strategy:          "weighted",
		Tally:             tally,
		Consensus:         consensus,
	}, nil
}
