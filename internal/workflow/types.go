package workflow

import (
	"context"
	"time"

	"github.com/haasonsaas/conclave/internal/agentcore"
	"github.com/haasonsaas/conclave/internal/clog"
	"github.com/haasonsaas/conclave/internal/voting"
)

// Stage tags a workflow progress event.
type Stage string

const (
	StageInitializing     Stage = "Initializing"
	StageAgentProcessing  Stage = "AgentProcessing"
	StageVoting           Stage = "Voting"
	StageConsensusBuilding Stage = "ConsensusBuilding"
	StageFinalizing       Stage = "Finalizing"
	StageCompleted        Stage = "Completed"
	StageFailed           Stage = "Failed"
)

// ProgressEvent is emitted through Options.OnProgress at each stage
// transition and per-agent start/complete.
type ProgressEvent struct {
	Stage           Stage
	Message         string
	CompletedAgents int
	TotalAgents     int
	CurrentAgentID  string
}

// Options configures one Execute call.
type Options struct {
	// EnableParallelExecution invokes all agents concurrently with a shared
	// deadline; false invokes them sequentially in registration order.
	EnableParallelExecution bool
	// Timeout, if positive, bounds the whole fan-out; a trip that is not a
	// caller cancellation surfaces as ErrTimeout.
	Timeout time.Duration
	// VotingStrategy reconciles the gathered responses.
	VotingStrategy voting.Strategy
	VotingContext  voting.Context
	// RequireConsensus re-runs voting with ConsensusStrategy when the first
	// pass's consensus score falls below MinimumConsensusScore.
	RequireConsensus          bool
	MinimumConsensusScore     float64
	ConsensusStrategy         voting.Strategy
	// StructuredSchema, when non-nil, makes every agent invocation use
	// ProcessStructured instead of Process.
	StructuredSchema map[string]string
	OnProgress       func(ProgressEvent)
	// ExecutionID correlates this run's log lines; a random id is minted if
	// left blank and a Logger is configured.
	ExecutionID string
	// Logger, if set, logs every stage transition alongside OnProgress
	// (§ ambient logging: every stage transition is also logged).
	Logger *clog.Logger
}

// Result is the outcome of one workflow execution.
type Result struct {
	Success        bool
	Value          any
	AgentResponses []agentcore.AgentResponse
	VotingResult   *voting.Result
	Elapsed        time.Duration
	Error          string
}

func (o *Options) progress(ctx context.Context, e ProgressEvent) {
	if o.Logger != nil {
		logCtx := ctx
		if o.ExecutionID != "" {
			logCtx = clog.WithExecution(logCtx, o.ExecutionID)
		}
		o.Logger.Info(logCtx, "workflow stage transition", "stage", string(e.Stage), "message", e.Message, "completed_agents", e.CompletedAgents, "total_agents", e.TotalAgents)
	}
	if o.OnProgress != nil {
		o.OnProgress(e)
	}
}
