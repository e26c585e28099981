package contextwindow

import "time"

// DeliberationMessage is one append-only transcript entry. Round numbers
// are strictly ≥ 1; timestamps are non-decreasing within a round per agent.
type DeliberationMessage struct {
	AgentID      string    `json:"agent_id"`
	AgentName    string    `json:"agent_name"`
	Content      string    `json:"content"`
	Round        int       `json:"round"`
	Timestamp    time.Time `json:"timestamp"`
	InResponseTo string    `json:"in_response_to,omitempty"`
	// TokenCount is the provider-reported count if known; 0 means
	// "estimate from content length" via EstimateTokens.
	TokenCount int `json:"token_count"`
}

// DeliberationState lives for the duration of a single deliberation
// execution. Its transcript is append-only; CurrentRound advances only at
// round start; Positions always covers every agent that has spoken.
type DeliberationState struct {
	OriginalTask      string                 `json:"original_task"`
	CurrentRound      int                    `json:"current_round"`
	TotalTokensUsed   int                    `json:"total_tokens_used"`
	Elapsed           time.Duration          `json:"elapsed"`
	Transcript        []DeliberationMessage  `json:"transcript"`
	Positions         map[string][]int       `json:"positions"`
	ConvergenceScore  *float64               `json:"convergence_score,omitempty"`
	Converged         bool                   `json:"converged"`
	CurrentSpeaker    string                 `json:"current_speaker,omitempty"`
	ParticipantIDs    []string               `json:"participant_ids"`
}

// RecordMessage appends msg to the transcript and updates the per-agent
// position history and running token total. It is the only mutator the
// deliberation executor's single control flow should call; fan-out closures
// return messages for the executor to append serially instead of mutating
// state themselves.
func (s *DeliberationState) RecordMessage(msg DeliberationMessage) {
	s.Transcript = append(s.Transcript, msg)
	if s.Positions == nil {
		s.Positions = map[string][]int{}
	}
	s.Positions[msg.AgentID] = append(s.Positions[msg.AgentID], msg.Round)
	s.TotalTokensUsed += estimateMessageTokens(msg)
}

// MessagesInRound returns the transcript entries for a given round, in
// transcript order.
func (s *DeliberationState) MessagesInRound(round int) []DeliberationMessage {
	var result []DeliberationMessage
	for _, m := range s.Transcript {
		if m.Round == round {
			result = append(result, m)
		}
	}
	return result
}

// LatestMessagePerAgent returns, for each participant that has spoken, its
// most recent transcript message.
func (s *DeliberationState) LatestMessagePerAgent() []DeliberationMessage {
	latest := map[string]DeliberationMessage{}
	order := []string{}
	for _, m := range s.Transcript {
		if _, ok := latest[m.AgentID]; !ok {
			order = append(order, m.AgentID)
		}
		latest[m.AgentID] = m
	}
	result := make([]DeliberationMessage, 0, len(order))
	for _, id := range order {
		result = append(result, latest[id])
	}
	return result
}

// ContextWindow is recomputed per agent per round: the projected message
// list an agent observes, bounded by a token/message budget.
type ContextWindow struct {
	Messages        []DeliberationMessage `json:"messages"`
	Summary         string                `json:"summary,omitempty"`
	EstimatedTokens int                   `json:"estimated_tokens"`
	OriginalCount   int                   `json:"original_count"`
	RetainedCount   int                   `json:"retained_count"`
	// Metadata tracks dropped/summarized/masked counts and rounds preserved.
	Metadata map[string]int `json:"metadata"`
}

// Budget bounds a single Project call. A zero value means unbounded.
type Budget struct {
	MaxTokens   int
	MaxMessages int
}

func (b Budget) tokensOK(used int) bool {
	return b.MaxTokens <= 0 || used <= b.MaxTokens
}

func (b Budget) messagesOK(count int) bool {
	return b.MaxMessages <= 0 || count <= b.MaxMessages
}
