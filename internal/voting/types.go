// Package voting implements the six reconciliation strategies that turn a
// list of agent responses into one winning answer plus a consensus score.
package voting

import (
	"context"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/llm"
)

// Arbiter is the LLM capability a strategy uses to judge or synthesize,
// distinct from the participating agents. Strategies that need it fall back
// to a deterministic default when Arbiter is nil.
type Arbiter struct {
	Provider llm.Provider
	Options  llm.Options
}

func (a *Arbiter) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	temp := temperature
	opts := a.Options
	opts.Temperature = &temp
	resp, err := a.Provider.Complete(ctx, []agentcore.Message{agentcore.NewUserMessage(prompt)}, &opts)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Context is read-only input shared by every strategy invocation.
type Context struct {
	// Weights maps agent id to its voting weight; unset entries default to 1.0.
	Weights map[string]float64
	// ConsensusThreshold is the required consensus score in [0,1]; default 0.6.
	ConsensusThreshold float64
	// AllowAbstention lets a strategy exclude non-answers from tallying.
	AllowAbstention bool
	// MaxRounds bounds strategies that iterate (ranked choice).
	MaxRounds int
	// Arbiter is the judge/synthesizer capability, nil if unavailable.
	Arbiter *Arbiter
}

func (c *Context) weight(agentID string) float64 {
	if c == nil || c.Weights == nil {
		return 1.0
	}
	if w, ok := c.Weights[agentID]; ok {
		return w
	}
	return 1.0
}

// DefaultContext returns a Context with the spec's documented defaults.
func DefaultContext() Context {
	return Context{ConsensusThreshold: 0.6}
}

// Result is returned once per voting call.
type Result struct {
	// WinningText is the strategy's chosen answer.
	WinningText string `json:"winning_text"`
	// WinningStructured carries the winner's parsed structured output, if any.
	WinningStructured any `json:"winning_structured,omitempty"`
	// WinningAgentID is the originating agent id, or a synthetic id
	// ("consensus", "aggregation") for strategies that synthesize.
	WinningAgentID string `json:"winning_agent_id"`
	// Strategy tags which strategy produced this result.
	Strategy string `json:"strategy"`
	// Tally maps a bucket key to its vote count, stable across calls of the
	// same strategy.
	Tally map[string]int `json:"tally"`
	// Consensus is the agreement score in [0,1].
	Consensus float64 `json:"consensus"`
}

// empty returns the zero-consensus result required for an empty response list.
func empty(strategy string) *Result {
	return &Result{Strategy: strategy, Tally: map[string]int{}}
}

// Strategy is a capability interface with a closed variant set: Majority,
// Weighted, RankedChoice, Consensus, Aggregation, ExpertPanel.
type Strategy interface {
	Name() string
	Vote(ctx context.Context, task string, responses []agentcore.AgentResponse, vctx Context) (*Result, error)
}
