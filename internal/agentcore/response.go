package agentcore

import "time"

// TokenUsage reports provider-supplied or estimated token counts.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// VoteResult is attached to an AgentResponse produced by Agent.Vote.
type VoteResult struct {
	ChosenAgentID string `json:"chosen_agent_id"`
	Reasoning     string `json:"reasoning"`
}

// AgentResponse is produced once per agent per invocation and consumed by
// voting strategies.
type AgentResponse struct {
	AgentID   string        `json:"agent_id"`
	AgentName string        `json:"agent_name"`
	Text      string        `json:"text"`
	// Structured holds the best-effort parsed structured output, if any.
	Structured any           `json:"structured,omitempty"`
	Confidence *float64      `json:"confidence,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
	Usage      *TokenUsage   `json:"usage,omitempty"`
	Vote       *VoteResult   `json:"vote,omitempty"`
}

// ConfidenceOrDefault returns Confidence or 1.0 when unset, the default used
// by the Weighted voting strategy.
func (r AgentResponse) ConfidenceOrDefault() float64 {
	if r.Confidence == nil {
		return 1.0
	}
	return *r.Confidence
}
