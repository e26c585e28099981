package deliberation

import (
	"context"
	"time"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/clog"
	"github.com/haasonsaas/conclave/internal/contextwindow"
	"github.com/haasonsaas/conclave/internal/convergence"
	"github.com/haasonsaas/conclave/internal/termination"
	"github.com/haasonsaas/conclave/internal/voting"
)

// RoundMode selects the turn-taking discipline for one deliberation round.
type RoundMode int

const (
	RoundRobin RoundMode = iota
	Debate
	Moderated
	FreeForm
)

// Stage tags a deliberation progress event.
type Stage string

const (
	StageInitializing        Stage = "Initializing"
	StageRoundStarting       Stage = "RoundStarting"
	StageAgentSpeaking       Stage = "AgentSpeaking"
	StageRoundComplete       Stage = "RoundComplete"
	StageEvaluatingConvergence Stage = "EvaluatingConvergence"
	StageCheckingTermination Stage = "CheckingTermination"
	StageSynthesizing        Stage = "Synthesizing"
	StageComplete            Stage = "Complete"
	StageFailed              Stage = "Failed"
)

// ProgressEvent mirrors spec §6's deliberation progress contract. The
// *Budget fields are display-only hints supplied by the caller via Options —
// the executor has no privileged view into an opaque termination.Strategy's
// thresholds, so it cannot derive them on its own.
type ProgressEvent struct {
	Stage                Stage
	CurrentRound         int
	MaxRounds            *int
	CurrentSpeaker       string
	TokensUsed           int
	TokenBudget          *int
	Elapsed              time.Duration
	TimeBudget           *time.Duration
	ConvergenceScore     *float64
	ConvergenceThreshold *float64
	Message              string
}

// Options configures one Execute call. Agents, Moderator, ContextManager,
// Termination, Convergence, and VotingStrategy are all capability
// interfaces/structs treated as immutable and safely shared across
// concurrent executions.
type Options struct {
	Agents    []*agentcore.Agent
	Moderator *agentcore.Agent
	Mode      RoundMode

	ContextManager contextwindow.Manager
	ContextBudget  contextwindow.Budget

	Termination termination.Strategy
	Convergence convergence.Calculator

	VotingStrategy voting.Strategy
	VotingContext  voting.Context

	// Display hints surfaced verbatim on ProgressEvent; optional.
	MaxRoundsHint            *int
	TokenBudgetHint          *int
	TimeBudgetHint           *time.Duration
	ConvergenceThresholdHint *float64

	OnProgress func(ProgressEvent)

	// ExecutionID correlates this run's log lines; a random id is minted if
	// left blank and a Logger is configured.
	ExecutionID string
	// Logger, if set, logs every stage transition alongside OnProgress.
	Logger *clog.Logger
}

func (o *Options) progress(ctx context.Context, e ProgressEvent) {
	e.MaxRounds = o.MaxRoundsHint
	e.TokenBudget = o.TokenBudgetHint
	e.TimeBudget = o.TimeBudgetHint
	e.ConvergenceThreshold = o.ConvergenceThresholdHint

	if o.Logger != nil {
		logCtx := ctx
		if o.ExecutionID != "" {
			logCtx = clog.WithExecution(logCtx, o.ExecutionID)
		}
		if e.CurrentRound > 0 {
			logCtx = clog.WithRound(logCtx, e.CurrentRound)
		}
		if e.CurrentSpeaker != "" {
			logCtx = clog.WithAgent(logCtx, e.CurrentSpeaker)
		}
		o.Logger.Info(logCtx, "deliberation stage transition", "stage", string(e.Stage), "message", e.Message, "tokens_used", e.TokensUsed)
	}
	if o.OnProgress != nil {
		o.OnProgress(e)
	}
}

// Result is the outcome of one deliberation execution.
type Result struct {
	Success               bool
	Value                 any
	State                 *contextwindow.DeliberationState
	TerminationReason     string
	TotalRounds           int
	TotalTokens           int
	TotalTime             time.Duration
	FinalConvergenceScore *float64
	Error                 string
}
