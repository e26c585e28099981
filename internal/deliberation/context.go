package deliberation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// buildHistory constructs the message history a given agent observes before
// speaking: an identity system message naming the other participants, an
// optional "[Context Summary]" system message when the projected window
// carries one, then the projected transcript rendered as assistant turns.
// With no context manager configured (or an empty transcript), only the
// identity message is attached.
func buildHistory(ctx context.Context, state *contextwindow.DeliberationState, opts *Options, forAgentID string) ([]agentcore.Message, error) {
	messages := []agentcore.Message{agentcore.NewSystemMessage(identityPrompt(opts.Agents, forAgentID))}

	if opts.ContextManager == nil || len(state.Transcript) == 0 {
		return messages, nil
	}

	window, err := opts.ContextManager.Project(ctx, state.Transcript, forAgentID, opts.ContextBudget)
	if err != nil {
		return nil, err
	}
	if window.Summary != "" {
		messages = append(messages, agentcore.NewSystemMessage("[Context Summary] "+window.Summary))
	}
	for _, m := range window.Messages {
		messages = append(messages, agentcore.NewAssistantMessage(renderTranscriptMessage(m)))
	}
	return messages, nil
}

func identityPrompt(agents []*agentcore.Agent, selfID string) string {
	var others []string
	for _, a := range agents {
		if a.ID != selfID {
			others = append(others, a.DisplayName)
		}
	}
	if len(others) == 0 {
		return "You are deliberating alone."
	}
	return "You are deliberating alongside: " + strings.Join(others, ", ") + "."
}

func renderTranscriptMessage(m contextwindow.DeliberationMessage) string {
	return fmt.Sprintf("[round %d] %s: %s", m.Round, m.AgentName, m.Content)
}

func renderMessages(messages []contextwindow.DeliberationMessage) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(renderTranscriptMessage(m))
		b.WriteByte('\n')
	}
	return b.String()
}

// record appends an agent's response to the transcript as one
// DeliberationMessage, charging the response's reported or estimated token
// count into state.TotalTokensUsed via RecordMessage.
func record(state *contextwindow.DeliberationState, agent *agentcore.Agent, resp agentcore.AgentResponse, round int, inResponseTo string) {
	tokenCount := 0
	if resp.Usage != nil {
		tokenCount = resp.Usage.PromptTokens + resp.Usage.CompletionTokens
	}
	state.RecordMessage(contextwindow.DeliberationMessage{
		AgentID:      agent.ID,
		AgentName:    agent.DisplayName,
		Content:      resp.Text,
		Round:        round,
		Timestamp:    time.Now(),
		InResponseTo: inResponseTo,
		TokenCount:   tokenCount,
	})
}
