package voting

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/conclave/internal/agentcore"
)

const consensusAgentID = "consensus"

// Consensus requires an arbiter to synthesize a unified response from the
// numbered inputs, then score that synthesis against the originals.
type Consensus struct{}

func (Consensus) Name() string { return "consensus" }

func (Consensus) Vote(ctx context.Context, task string, responses []agentcore.AgentResponse, vctx Context) (*Result, error) {
	if len(responses) == 0 {
		return empty("consensus"), nil
	}

	if vctx.Arbiter == nil {
		winner := responses[0]
		return &Result{
			WinningText:    winner.Text,
			WinningAgentID: winner.AgentID,
			Strategy:       "consensus",
			Tally:          map[string]int{},
			Consensus:      1.0 / float64(len(responses)),
		}, nil
	}

	synthesis, err := vctx.Arbiter.complete(ctx, buildSynthesisPrompt(task, responses), 0.3)
	if err != nil {
		return nil, err
	}
	scoreText, err := vctx.Arbiter.complete(ctx, buildScorePrompt(task, synthesis, responses), 0.0)
	if err != nil {
		return nil, err
	}

	score, ok := parseFirstNumber(scoreText)
	if !ok {
		score = 0.5
	}
	score = clampScore(score)

	tally := map[string]int{consensusAgentID: 1}
	return &Result{
		WinningText:    synthesis,
		WinningAgentID: consensusAgentID,
		Strategy:       "consensus",
		Tally:          tally,
		Consensus:      score,
	}, nil
}

func buildSynthesisPrompt(task string, responses []agentcore.AgentResponse) string {
	var b strings.Builder
	b.WriteString("You are a consensus builder. Synthesize the following responses into one unified answer.\n\n")
	fmt.Fprintf(&b, "Task: %s\n\n", task)
	for i, r := range responses {
		fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, r.AgentName, r.Text)
	}
	return b.String()
}

func buildScorePrompt(task, synthesis string, responses []agentcore.AgentResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nSynthesis:\n%s\n\nOriginal responses:\n", task, synthesis)
	for i, r := range responses {
		fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, r.AgentName, r.Text)
	}
	b.WriteString("\nOn a scale from 0.0 to 1.0, how well does the synthesis represent the originals? Reply with only the number.")
	return b.String()
}
