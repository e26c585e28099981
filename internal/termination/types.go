package termination

import (
	"context"

	"github.com/haasonsaas/conclave/internal/contextwindow"
)

// Reason tags a TerminationDecision's cause.
const (
	ReasonMaxRoundsReached   = "MaxRoundsReached"
	ReasonMaxTokensReached   = "MaxTokensReached"
	ReasonMaxTimeReached     = "MaxTimeReached"
	ReasonConvergenceAchieved = "ConvergenceAchieved"
	ReasonAgentDecision      = "AgentDecision"
	ReasonWorkflowDecision   = "WorkflowDecision"
	ReasonCustomCondition    = "CustomCondition"
	ReasonCompositeAll       = "CompositeAll"
)

// Decision is the result of one termination-strategy check.
type Decision struct {
	ShouldTerminate bool
	Reason          string
	Explanation     string
	// Confidence is 1.0 for every deterministic reason; only AgentDecision
	// and WorkflowDecision carry a judge-reported confidence below 1.0.
	Confidence float64
}

func no() Decision { return Decision{} }

// Strategy is a predicate over deliberation state deciding whether to stop.
type Strategy interface {
	Check(ctx context.Context, state *contextwindow.DeliberationState) (Decision, error)
}
