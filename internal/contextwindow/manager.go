package contextwindow

import (
	"context"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/llm"
)

// Manager is a capability interface with a closed variant set: SlidingWindow,
// RecursiveSummarization, Hierarchical, ObservationMasking, Hybrid.
type Manager interface {
	Project(ctx context.Context, transcript []DeliberationMessage, forAgent string, budget Budget) (*ContextWindow, error)
}

// summarizer is the shared LLM-backed summarization call used by
// RecursiveSummarization, Hierarchical, and ObservationMasking's
// ExtractKeyPoints strategy.
type summarizer struct {
	provider llm.Provider
}

func (s *summarizer) complete(ctx context.Context, systemPrompt, prompt string, temperature float64, maxTokens int) (string, error) {
	opts := &llm.Options{SystemPrompt: systemPrompt, Temperature: &temperature, MaxTokens: maxTokens}
	resp, err := s.provider.Complete(ctx, []agentcore.Message{agentcore.NewUserMessage(prompt)}, opts)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func participantNames(messages []DeliberationMessage) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range messages {
		if !seen[m.AgentName] {
			seen[m.AgentName] = true
			names = append(names, m.AgentName)
		}
	}
	return names
}
