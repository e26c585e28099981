package voting

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

// ExpertPanel requires an arbiter to score each response independently
// across five dimensions; without one it falls back to weight × confidence
// with a 0.5 default confidence (rather than Weighted's 1.0 default, since an
// un-scored response here carries no evidence of quality).
type ExpertPanel struct{}

func (ExpertPanel) Name() string { return "expert_panel" }

func (ExpertPanel) Vote(ctx context.Context, task string, responses []agentcore.AgentResponse, vctx Context) (*Result, error) {
	if len(responses) == 0 {
		return empty("expert_panel"), nil
	}

	if vctx.Arbiter == nil {
		return expertPanelFallback(responses, vctx), nil
	}

	scores := make([]float64, len(responses))
	for i, r := range responses {
		content, err := vctx.Arbiter.complete(ctx, buildExpertPanelPrompt(task, r), 0.1)
		if err != nil {
			return nil, err
		}
		nums := parseNumbersInRange(content, 0, 1)
		if len(nums) == 0 {
			scores[i] = 0.5
			continue
		}
		sum := 0.0
		for _, n := range nums {
			sum += n
		}
		scores[i] = sum / float64(len(nums))
	}

	winnerIdx := 0
	for i := range responses {
		if scores[i] > scores[winnerIdx] {
			winnerIdx = i
		}
	}
	maxScore := scores[winnerIdx]

	tally := map[string]int{}
	for i, r := range responses {
		if maxScore > 0 {
			tally[r.AgentID] = int(math.Round(100 * scores[i] / maxScore))
		} else {
			tally[r.AgentID] = 0
		}
	}

	winner := responses[winnerIdx]
	return &Result{
		WinningText:       winner.Text,
		WinningStructured: winner.Structured,
		WinningAgentID:    winner.AgentID,
		Strategy:          "expert_panel",
		Tally:             tally,
		Consensus:         maxScore,
	}, nil
}

func expertPanelFallback(responses []agentcore.AgentResponse, vctx Context) *Result {
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
		confidence := 0.5
		if r.Confidence != nil {
			confidence = *r.Confidence
		}
		contribution := vctx.weight(r.AgentID) * confidence
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
		Strategy:          "expert_panel",
		Tally:             tally,
		Consensus:         consensus,
	}
}

func buildExpertPanelPrompt(task string, r agentcore.AgentResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nResponse to evaluate:\n%s\n\n", task, r.Text)
	b.WriteString("Score this response from 0.0 to 1.0 on each of: accuracy, completeness, clarity, relevance, insight. Reply with only the five numbers.")
	return b.String()
}
