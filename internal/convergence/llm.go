package convergence

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/contextwindow"
	"github.com/haasonsaas/conclave/internal/llm"
)

var scorePattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// LLM asks a provider to score convergence directly, sending the task plus
// the last two transcript rounds at a low, near-deterministic temperature
// and a tiny max-token budget since only a single number is expected back.
// Grounded on internal/agent/providers/base.go's single-shot scoring-call
// shape.
type LLM struct {
	Provider llm.Provider
}

func (c LLM) Score(ctx context.Context, state *contextwindow.DeliberationState) (float64, error) {
	if state.CurrentRound < 2 {
		return 0, nil
	}
	current := state.MessagesInRound(state.CurrentRound)
	previous := state.MessagesInRound(state.CurrentRound - 1)
	if len(current) == 0 || len(previous) == 0 {
		return 0, nil
	}

	prompt := buildConvergencePrompt(state.OriginalTask, previous, current)
	temperature := 0.1
	resp, err := c.Provider.Complete(ctx, []agentcore.Message{agentcore.NewUserMessage(prompt)}, &llm.Options{
		Temperature: &temperature,
		MaxTokens:   10,
	})
	if err != nil {
		return 0, err
	}
	return parseConvergenceScore(resp.Content), nil
}

func parseConvergenceScore(content string) float64 {
	match := scorePattern.FindString(content)
	if match == "" {
		return 0.5
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func buildConvergencePrompt(task string, previous, current []contextwindow.DeliberationMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nPrevious round:\n", task)
	for _, m := range previous {
		fmt.Fprintf(&b, "%s: %s\n", m.AgentName, m.Content)
	}
	b.WriteString("\nCurrent round:\n")
	for _, m := range current {
		fmt.Fprintf(&b, "%s: %s\n", m.AgentName, m.Content)
	}
	b.WriteString("\nOn a scale from 0 to 1, how converged are the agents' positions between these two rounds? Respond with only the number.")
	return b.String()
}
