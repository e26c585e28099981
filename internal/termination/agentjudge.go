package termination

import (
	"context"
	"fmt"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/contextwindow"
)

var judgeSchema = map[string]string{
	"shouldTerminate":     "boolean",
	"confidence":          "number 0-1",
	"reasoning":           "string",
	"keyPointsResolved":   "string[]",
	"outstandingIssues":   "string[]",
}

const defaultJudgePrompt = "Review the deliberation transcript so far. Has the discussion reached a satisfactory conclusion that the agents should stop at?"

// AgentTerminator asks a judge agent whether the deliberation should stop,
// via the same processStructured path agents use for typed workflow output.
type AgentTerminator struct {
	Agent     *agentcore.Agent
	Prompt    string
	// ConfThreshold defaults to 0.7 when zero.
	ConfThreshold float64
}

func (a AgentTerminator) Check(ctx context.Context, state *contextwindow.DeliberationState) (Decision, error) {
	threshold := a.ConfThreshold
	if threshold <= 0 {
		threshold = 0.7
	}
	prompt := a.Prompt
	if prompt == "" {
		prompt = defaultJudgePrompt
	}

	history := transcriptAsHistory(state)
	resp := a.Agent.ProcessStructured(ctx, prompt, history, judgeSchema)

	verdict, ok := parseJudgeVerdict(resp.Structured)
	if !ok || !verdict.shouldTerminate || verdict.confidence < threshold {
		return no(), nil
	}
	return Decision{
		ShouldTerminate: true,
		Reason:          ReasonAgentDecision,
		Explanation:     fmt.Sprintf("judge agent %s: %s", a.Agent.DisplayName, verdict.reasoning),
		Confidence:      verdict.confidence,
	}, nil
}

type judgeVerdict struct {
	shouldTerminate bool
	confidence      float64
	reasoning       string
}

func parseJudgeVerdict(structured any) (judgeVerdict, bool) {
	m, ok := structured.(map[string]any)
	if !ok {
		return judgeVerdict{}, false
	}
	should, _ := m["shouldTerminate"].(bool)
	conf, _ := m["confidence"].(float64)
	reasoning, _ := m["reasoning"].(string)
	return judgeVerdict{shouldTerminate: should, confidence: conf, reasoning: reasoning}, true
}

// transcriptAsHistory renders the deliberation transcript so far as message
// history a judge agent can condition on.
func transcriptAsHistory(state *contextwindow.DeliberationState) []agentcore.Message {
	messages := make([]agentcore.Message, 0, len(state.Transcript))
	for _, m := range state.Transcript {
		messages = append(messages, agentcore.Message{
			Role:    agentcore.RoleAssistant,
			Content: fmt.Sprintf("[round %d] %s: %s", m.Round, m.AgentName, m.Content),
		})
	}
	return messages
}
