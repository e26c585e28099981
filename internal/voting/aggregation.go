package voting

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

const aggregationAgentID = "aggregation"

// Aggregation combines every response into one comprehensive answer: via an
// arbiter when available, or deterministic concatenation otherwise.
type Aggregation struct{}

func (Aggregation) Name() string { return "aggregation" }

func (Aggregation) Vote(ctx context.Context, task string, responses []agentcore.AgentResponse, vctx Context) (*Result, error) {
	if len(responses) == 0 {
		return empty("aggregation"), nil
	}

	var text string
	if vctx.Arbiter != nil {
		combined, err := vctx.Arbiter.complete(ctx, buildAggregationPrompt(task, responses), 0.3)
		if err != nil {
			return nil, err
		}
		text = combined
	} else {
		parts := make([]string, len(responses))
		for i, r := range responses {
			parts[i] = fmt.Sprintf("[%s]: %s", r.AgentName, r.Text)
		}
		text = strings.Join(parts, "---")
	}

	tally := map[string]int{aggregationAgentID: 1}
	return &Result{
		WinningText:    text,
		WinningAgentID: aggregationAgentID,
		Strategy:       "aggregation",
		Tally:          tally,
		Consensus:      1.0,
	}, nil
}

func buildAggregationPrompt(task string, responses []agentcore.AgentResponse) string {
	var b strings.Builder
	b.WriteString("Combine the following responses into one comprehensive answer. Remove redundancy but preserve nuance.\n\n")
	fmt.Fprintf(&b, "Task: %s\n\n", task)
	for i, r := range responses {
		fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, r.AgentName, r.Text)
	}
	return b.String()
}
